package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/logsieve/logsieve/pkg/checkpoint"
	"github.com/logsieve/logsieve/pkg/classify"
	"github.com/logsieve/logsieve/pkg/config"
	sieveerr "github.com/logsieve/logsieve/pkg/errors"
	"github.com/logsieve/logsieve/pkg/loader"
	"github.com/logsieve/logsieve/pkg/loader/sources"
	"github.com/logsieve/logsieve/pkg/pipeline"
	"github.com/logsieve/logsieve/pkg/quarantine"
	"github.com/logsieve/logsieve/pkg/report"
	"github.com/logsieve/logsieve/pkg/schema"
	"github.com/logsieve/logsieve/pkg/sinks"
	"github.com/logsieve/logsieve/pkg/telemetry"
	"github.com/logsieve/logsieve/pkg/tui"
)

// Validate command flags
var (
	specFile       string
	workersFlag    int
	cleanPath      string
	quarantinePath string
	reportPath     string
	arrowPath      string
	preferFormat   string
	checkpointFlag string
)

var validateCmd = &cobra.Command{
	Use:   "validate [inputs...]",
	Short: "Validate log files and partition rows into clean and quarantine",
	Long: `Validate one or more log files against the field specification.

Inputs may be local files, glob patterns, or s3:// URIs. Every row ends
up in exactly one of the clean output or the quarantine; rows are never
silently dropped. The declared input order defines the output order, so
runs are reproducible regardless of worker count.

Examples:
  logsieve validate auth.csv
  logsieve validate 'exports/*.jsonl' --spec fields.yaml
  logsieve validate s3://sec-logs/2026/08/29.csv --workers 8
  logsieve validate vpn.csv --prefer-format mm/dd/yyyy`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&specFile, "spec", "", "Field specification file (default: built-in auth spec)")
	validateCmd.Flags().IntVar(&workersFlag, "workers", 0, "Parallel file workers (0 = all CPUs)")
	validateCmd.Flags().StringVar(&cleanPath, "clean", "", "Clean output CSV path")
	validateCmd.Flags().StringVar(&quarantinePath, "quarantine", "", "Quarantine JSONL path")
	validateCmd.Flags().StringVar(&reportPath, "report", "", "Quality report JSON path")
	validateCmd.Flags().StringVar(&arrowPath, "arrow", "", "Also write the clean partition as an Arrow IPC stream")
	validateCmd.Flags().StringVar(&preferFormat, "prefer-format", "", "Disambiguation rule for timestamps matching several formats")
	validateCmd.Flags().StringVar(&checkpointFlag, "checkpoint", "", "Checkpoint backend: none, file, redis")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyValidateFlags(cfg)
	log := setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		tcfg := telemetry.DefaultConfig("logsieve")
		tcfg.ServiceVersion = version
		if cfg.Telemetry.Endpoint != "" {
			tcfg.Endpoint = cfg.Telemetry.Endpoint
		}
		shutdown, err := telemetry.Setup(ctx, tcfg)
		if err != nil {
			log.Warn().Err(err).Msg("telemetry disabled")
		} else {
			defer shutdown(context.Background())
		}
	}

	ctx, span := telemetry.Tracer("logsieve").Start(ctx, "validate")
	defer span.End()

	p, qw, cleanSinks, _, err := buildPipeline(cfg, log)
	if err != nil {
		return err
	}

	srcs, err := sources.Resolve(ctx, args, sources.ResolveOptions{
		OpenTimeout: cfg.Pipeline.OpenTimeoutDuration(),
		S3:          s3Options(cfg),
	})
	if err != nil {
		return err
	}
	if len(srcs) == 0 {
		return sieveerr.New(sieveerr.CodeFileNotFound, "no inputs matched")
	}

	rep, runErr := p.Run(ctx, srcs)

	if err := closeOutputs(cleanSinks, qw); err != nil && runErr == nil {
		runErr = err
	}
	if err := writeReport(rep, cfg.Output.ReportPath); err != nil && runErr == nil {
		runErr = err
	}

	if !quiet {
		tui.PrintReport(rep, cfg.Output.CleanPath, cfg.Output.QuarantinePath, p.Metrics().Elapsed())
	}
	return runErr
}

func applyValidateFlags(cfg *config.Config) {
	if specFile != "" {
		cfg.Schema.SpecFile = specFile
	}
	if workersFlag > 0 {
		cfg.Pipeline.Workers = workersFlag
	}
	if cleanPath != "" {
		cfg.Output.CleanPath = cleanPath
	}
	if quarantinePath != "" {
		cfg.Output.QuarantinePath = quarantinePath
	}
	if reportPath != "" {
		cfg.Output.ReportPath = reportPath
	}
	if arrowPath != "" {
		cfg.Output.ArrowPath = arrowPath
	}
	if preferFormat != "" {
		cfg.Timestamp.Prefer = preferFormat
	}
	if checkpointFlag != "" {
		cfg.Checkpoint.Backend = checkpointFlag
	}
}

// buildValidation constructs the classifier from the configured spec.
func buildValidation(cfg *config.Config) (*classify.Classifier, *schema.Spec, error) {
	spec, err := config.LoadFieldSpec(cfg.Schema.SpecFile)
	if err != nil {
		return nil, nil, err
	}
	tv, err := config.BuildTimestampValidator(cfg.Timestamp)
	if err != nil {
		return nil, nil, err
	}
	sv := schema.NewValidator(spec,
		schema.WithTimestampField(tv.Field()),
		schema.WithTimestampCheck(tv.CanParse),
	)
	return classify.New(sv, tv), spec, nil
}

// buildPipeline wires classifier, sinks, quarantine, aggregator, and
// checkpoint store into a runnable pipeline.
func buildPipeline(cfg *config.Config, log zerolog.Logger) (*pipeline.Pipeline, *quarantine.Writer, []pipeline.CleanSink, *report.Aggregator, error) {
	classifier, spec, err := buildValidation(cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	agg := report.NewAggregator()

	var cleanSinks []pipeline.CleanSink
	csvSink, err := sinks.NewCSVWriter(cfg.Output.CleanPath, spec)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	cleanSinks = append(cleanSinks, csvSink)
	if cfg.Output.ArrowPath != "" {
		arrowSink, err := sinks.NewArrowWriter(cfg.Output.ArrowPath, spec)
		if err != nil {
			csvSink.Close()
			return nil, nil, nil, nil, err
		}
		cleanSinks = append(cleanSinks, arrowSink)
	}

	qw, err := quarantine.NewWriter(cfg.Output.QuarantinePath, agg.RunID())
	if err != nil {
		closeOutputs(cleanSinks, nil)
		return nil, nil, nil, nil, err
	}

	ckpt, err := buildCheckpoint(cfg)
	if err != nil {
		closeOutputs(cleanSinks, qw)
		return nil, nil, nil, nil, err
	}

	opts := pipeline.Options{
		Workers:    cfg.Pipeline.Workers,
		BufferSize: cfg.Pipeline.BufferSize,
		Loader:     loader.DefaultConfig(),
		Checkpoint: ckpt,
		Logger:     log,
	}
	if !quiet {
		opts.Listener = &tui.Progress{}
	}

	return pipeline.New(classifier, cleanSinks, qw, agg, opts), qw, cleanSinks, agg, nil
}

func buildCheckpoint(cfg *config.Config) (checkpoint.Store, error) {
	switch cfg.Checkpoint.Backend {
	case "", "none":
		return nil, nil
	case "file":
		path := cfg.Checkpoint.Path
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			path = home + "/.logsieve/checkpoints.jsonl"
		}
		return checkpoint.NewFileStore(path)
	case "redis":
		return checkpoint.NewRedisStore(context.Background(), checkpoint.RedisOptions{
			Addr:     cfg.Checkpoint.Redis.Addr,
			Password: cfg.Checkpoint.Redis.Password,
			DB:       cfg.Checkpoint.Redis.DB,
			TTL:      cfg.Checkpoint.Redis.TTLDuration(),
		})
	default:
		return nil, sieveerr.ConfigInvalid(fmt.Sprintf("unknown checkpoint backend %q", cfg.Checkpoint.Backend))
	}
}

func s3Options(cfg *config.Config) sources.S3Options {
	return sources.S3Options{
		Region:          cfg.S3.Region,
		Endpoint:        cfg.S3.Endpoint,
		UsePathStyle:    cfg.S3.PathStyle,
		AccessKeyID:     cfg.S3.AccessKey,
		SecretAccessKey: cfg.S3.SecretKey,
		DownloadTimeout: cfg.Pipeline.DownloadTimeoutDuration(),
	}
}

func closeOutputs(cleanSinks []pipeline.CleanSink, qw *quarantine.Writer) error {
	var first error
	for _, s := range cleanSinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	if qw != nil {
		if err := qw.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func writeReport(rep *report.QualityReport, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return sieveerr.Wrap(err, sieveerr.CodeWriteFailed, "cannot create report "+path)
	}
	defer f.Close()
	return rep.Write(f)
}
