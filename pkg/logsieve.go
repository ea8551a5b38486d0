// Package pkg provides the main entry point for the logsieve library.
//
// Logsieve partitions security log exports into clean and quarantined
// rows against a field specification.
//
// Basic usage:
//
//	// Validate with the built-in auth spec
//	rep, err := logsieve.Validate(ctx, []string{"auth.csv"}, "out")
//
//	// With options
//	rep, err := logsieve.Validate(ctx, []string{"auth.csv"}, "out",
//	    logsieve.WithWorkers(8),
//	    logsieve.WithPreferredFormat("mm/dd/yyyy"),
//	)
package pkg

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/logsieve/logsieve/pkg/classify"
	"github.com/logsieve/logsieve/pkg/loader"
	"github.com/logsieve/logsieve/pkg/loader/sources"
	"github.com/logsieve/logsieve/pkg/pipeline"
	"github.com/logsieve/logsieve/pkg/quarantine"
	"github.com/logsieve/logsieve/pkg/report"
	"github.com/logsieve/logsieve/pkg/schema"
	"github.com/logsieve/logsieve/pkg/sinks"
	"github.com/logsieve/logsieve/pkg/timestamp"
)

// Option configures a validation run.
type Option func(*runConfig)

type runConfig struct {
	spec    *schema.Spec
	formats []timestamp.Format
	prefer  string
	tsField string
	workers int
	logger  zerolog.Logger
}

// WithSpec overrides the built-in authentication log specification.
func WithSpec(spec *schema.Spec) Option {
	return func(c *runConfig) { c.spec = spec }
}

// WithTimestampField names the field carrying the event instant.
func WithTimestampField(name string) Option {
	return func(c *runConfig) { c.tsField = name }
}

// WithFormats restricts the candidate timestamp formats.
func WithFormats(formats []timestamp.Format) Option {
	return func(c *runConfig) { c.formats = formats }
}

// WithPreferredFormat sets the disambiguation rule for values that
// parse under several formats.
func WithPreferredFormat(name string) Option {
	return func(c *runConfig) { c.prefer = name }
}

// WithWorkers bounds concurrent file parsing.
func WithWorkers(n int) Option {
	return func(c *runConfig) { c.workers = n }
}

// WithLogger installs a structured logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *runConfig) { c.logger = l }
}

// Validate runs the whole pipeline over the given inputs, writing
// clean.csv, quarantine.jsonl, and report.json into outDir. Inputs may
// be local paths, glob patterns, or s3:// URIs.
func Validate(ctx context.Context, inputs []string, outDir string, opts ...Option) (*report.QualityReport, error) {
	cfg := runConfig{
		spec:    schema.DefaultAuthSpec(),
		formats: timestamp.DefaultFormats(),
		tsField: "timestamp",
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	var tsOpts []timestamp.Option
	if cfg.prefer != "" {
		tsOpts = append(tsOpts, timestamp.WithPreferred(cfg.prefer))
	}
	tv := timestamp.NewValidator(cfg.tsField, cfg.formats, tsOpts...)
	sv := schema.NewValidator(cfg.spec,
		schema.WithTimestampField(cfg.tsField),
		schema.WithTimestampCheck(tv.CanParse),
	)
	classifier := classify.New(sv, tv)

	agg := report.NewAggregator()
	cleanSink, err := sinks.NewCSVWriter(filepath.Join(outDir, "clean.csv"), cfg.spec)
	if err != nil {
		return nil, err
	}
	qw, err := quarantine.NewWriter(filepath.Join(outDir, "quarantine.jsonl"), agg.RunID())
	if err != nil {
		cleanSink.Close()
		return nil, err
	}

	p := pipeline.New(classifier, []pipeline.CleanSink{cleanSink}, qw, agg, pipeline.Options{
		Workers: cfg.workers,
		Loader:  loader.DefaultConfig(),
		Logger:  cfg.logger,
	})

	srcs, err := sources.Resolve(ctx, inputs, sources.ResolveOptions{})
	if err != nil {
		cleanSink.Close()
		qw.Close()
		return nil, err
	}

	rep, runErr := p.Run(ctx, srcs)
	if err := cleanSink.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if err := qw.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return rep, runErr
	}

	f, err := os.Create(filepath.Join(outDir, "report.json"))
	if err != nil {
		return rep, err
	}
	defer f.Close()
	return rep, rep.Write(f)
}
