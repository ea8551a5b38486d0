package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/logsieve/logsieve/pkg/config"
	"github.com/logsieve/logsieve/pkg/loader/sources"
	"github.com/logsieve/logsieve/pkg/tui"
	"github.com/logsieve/logsieve/pkg/watch"
)

var (
	watchOutDir   string
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [directories...]",
	Short: "Validate log files as they are dropped into a directory",
	Long: `Watch directories and validate each new or rewritten log file. Per-file
outputs land in the output directory, named after the input:
auth.csv becomes auth.clean.csv, auth.quarantine.jsonl, auth.report.json.

Examples:
  logsieve watch /var/log/exports
  logsieve watch /srv/drop --out-dir /srv/validated --spec fields.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchOutDir, "out-dir", ".", "Directory for per-file outputs")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "Settle time before validating a changed file")
	watchCmd.Flags().StringVar(&specFile, "spec", "", "Field specification file (default: built-in auth spec)")
	watchCmd.Flags().StringVar(&preferFormat, "prefer-format", "", "Disambiguation rule for timestamps matching several formats")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyValidateFlags(cfg)
	log := setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := watch.New(log, watchDebounce)
	if err != nil {
		return err
	}
	defer w.Close()

	for _, dir := range args {
		if err := w.Add(dir); err != nil {
			return err
		}
		log.Info().Str("dir", dir).Msg("watching")
	}

	w.OnChange = func(ctx context.Context, path string) error {
		return validateOne(ctx, cfg, log, path)
	}

	err = w.Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}

// validateOne runs a full single-file validation with derived output
// names. Each change gets a fresh pipeline so a bad drop cannot poison
// later ones.
func validateOne(ctx context.Context, base *config.Config, log zerolog.Logger, path string) error {
	cfg := *base
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	cfg.Output.CleanPath = filepath.Join(watchOutDir, stem+".clean.csv")
	cfg.Output.QuarantinePath = filepath.Join(watchOutDir, stem+".quarantine.jsonl")
	cfg.Output.ReportPath = filepath.Join(watchOutDir, stem+".report.json")
	cfg.Output.ArrowPath = ""

	p, qw, cleanSinks, _, err := buildPipeline(&cfg, log)
	if err != nil {
		return err
	}

	src := sources.NewFileSource(path, cfg.Pipeline.OpenTimeoutDuration())
	rep, runErr := p.Run(ctx, []sources.Source{src})

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
