// Package pipeline orchestrates a validation run: per-file workers
// parse and classify in parallel, a single merge stage consumes their
// results in declared file order, and every row lands in exactly one of
// the clean sinks or the quarantine.
//
// Output ordering is fully deterministic: running with one worker or
// sixteen produces byte-identical clean, quarantine, and report files.
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/logsieve/logsieve/internal/model"
	"github.com/logsieve/logsieve/pkg/checkpoint"
	"github.com/logsieve/logsieve/pkg/classify"
	sieveerr "github.com/logsieve/logsieve/pkg/errors"
	"github.com/logsieve/logsieve/pkg/loader"
	"github.com/logsieve/logsieve/pkg/loader/sources"
	"github.com/logsieve/logsieve/pkg/quarantine"
	"github.com/logsieve/logsieve/pkg/report"
)

// CleanSink receives every clean record, in merged order.
type CleanSink interface {
	Write(*model.CleanRecord) error
	Close() error
}

// Listener observes per-file progress. All callbacks come from the
// merge goroutine, in declared file order.
type Listener interface {
	FileStarted(name string)
	FileFinished(name string, rows int64, failed bool)
}

// Options tune a run. The zero value is usable.
type Options struct {
	// Workers bounds concurrent file parsing. Zero means one.
	Workers int
	// BufferSize is the per-file result channel depth.
	BufferSize int
	// Loader configures the format readers.
	Loader loader.Config
	// Checkpoint, when set, skips sources whose fingerprint a prior
	// run already completed, and marks sources completed here.
	Checkpoint checkpoint.Store
	// Listener, when set, receives progress callbacks.
	Listener Listener
	// Logger receives structured run events.
	Logger zerolog.Logger
}

// Pipeline wires a classifier to its sinks.
type Pipeline struct {
	classifier *classify.Classifier
	clean      []CleanSink
	quarantine *quarantine.Writer
	agg        *report.Aggregator
	opts       Options
	metrics    Metrics
}

// New creates a pipeline. Clean sinks may be empty for report-only
// runs; quarantine may be nil to discard bad rows after counting them.
func New(c *classify.Classifier, clean []CleanSink, q *quarantine.Writer, agg *report.Aggregator, opts Options) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1024
	}
	if opts.Loader.Delimiter == 0 {
		opts.Loader.Delimiter = loader.DefaultConfig().Delimiter
	}
	if opts.Loader.BufferSize <= 0 {
		opts.Loader.BufferSize = loader.DefaultConfig().BufferSize
	}
	return &Pipeline{
		classifier: c,
		clean:      clean,
		quarantine: q,
		agg:        agg,
		opts:       opts,
	}
}

// Metrics returns the run counters.
func (p *Pipeline) Metrics() *Metrics { return &p.metrics }

// rowResult is one classified record tagged with its origin.
type rowResult struct {
	rec     *model.RawRecord
	outcome model.ValidationOutcome
}

// fileOutcome is what a worker leaves behind for the merge stage. The
// channel close happens-before the merge reads failure and skipped.
type fileOutcome struct {
	results chan rowResult
	failure *sieveerr.SieveError
	skipped bool
	rows    int64
}

// Run validates every source and returns the quality report. On
// cancellation the report is still returned, marked partial, alongside
// the cancellation error. Per-file failures are data, not errors: they
// appear in the report's fileFailures and do not abort the run.
func (p *Pipeline) Run(ctx context.Context, srcs []sources.Source) (*report.QualityReport, error) {
	p.metrics.start()
	log := p.opts.Logger
	log.Info().Int("files", len(srcs)).Int("workers", p.opts.Workers).Str("run_id", p.agg.RunID()).Msg("validation run started")

	outcomes := make([]*fileOutcome, len(srcs))
	for i := range outcomes {
		outcomes[i] = &fileOutcome{results: make(chan rowResult, p.opts.BufferSize)}
	}

	g, gctx := errgroup.WithContext(ctx)

	// Workers start in declared order so the merge stage's current
	// file is always among the running ones; with full buffers the
	// later workers block while the earliest drains.
	g.Go(func() error {
		wg, wctx := errgroup.WithContext(gctx)
		wg.SetLimit(p.opts.Workers)
		for i := range srcs {
			i, src := i, srcs[i]
			wg.Go(func() error {
				defer close(outcomes[i].results)
				p.processFile(wctx, src, outcomes[i])
				return nil
			})
		}
		return wg.Wait()
	})

	var mergeErr error
	g.Go(func() error {
		mergeErr = p.merge(gctx, srcs, outcomes)
		return mergeErr
	})

	err := g.Wait()
	p.metrics.stop()

	if ctx.Err() != nil {
		p.agg.MarkPartial()
		if err == nil || err == context.Canceled || err == context.DeadlineExceeded {
			err = sieveerr.ContextCanceled("validation run")
		}
	} else if mergeErr != nil {
		err = mergeErr
	}

	rep := p.agg.Finalize()
	log.Info().
		Int64("total", rep.Total).
		Int64("clean", rep.Clean).
		Int64("bad", rep.Bad).
		Int("file_failures", len(rep.FileFailures)).
		Bool("partial", rep.Partial).
		Dur("elapsed", p.metrics.Elapsed()).
		Msg("validation run finished")
	return rep, err
}

// merge consumes worker output strictly in declared file order, feeding
// the aggregator and routing each row to exactly one sink.
func (p *Pipeline) merge(ctx context.Context, srcs []sources.Source, outcomes []*fileOutcome) error {
	for i, fo := range outcomes {
		name := srcs[i].Name()
		if p.opts.Listener != nil {
			p.opts.Listener.FileStarted(name)
		}

		var rows int64
		for r := range fo.results {
			rows++
			p.agg.Add(r.outcome)
			if err := p.route(r); err != nil {
				return err
			}
		}

		switch {
		case fo.skipped:
			p.metrics.FilesSkipped.Add(1)
			p.opts.Logger.Debug().Str("file", name).Msg("unchanged since last run, skipped")
		case fo.failure != nil:
			p.metrics.FilesFailed.Add(1)
			p.agg.AddFileFailure(name, fo.failure.Message)
			p.opts.Logger.Warn().Str("file", name).Str("code", string(fo.failure.Code)).Msg(fo.failure.Message)
		default:
			p.metrics.FilesProcessed.Add(1)
			p.markComplete(ctx, srcs[i], fo)
		}
		if p.opts.Listener != nil {
			p.opts.Listener.FileFinished(name, rows, fo.failure != nil)
		}

		if ctx.Err() != nil && i < len(outcomes)-1 {
			// Remaining channels close as their workers notice the
			// cancellation; nothing further is merged.
			return nil
		}
	}
	return nil
}

func (p *Pipeline) route(r rowResult) error {
	cleanRec, badRec := classify.Route(r.rec, r.outcome)
	if cleanRec != nil {
		p.metrics.RowsClean.Add(1)
		for _, s := range p.clean {
			if err := s.Write(cleanRec); err != nil {
				return err
			}
		}
		return nil
	}
	p.metrics.RowsBad.Add(1)
	if p.quarantine != nil {
		return p.quarantine.Write(badRec)
	}
	return nil
}

// markComplete records the file in the checkpoint store when both the
// store and a source fingerprint are available.
func (p *Pipeline) markComplete(ctx context.Context, src sources.Source, fo *fileOutcome) {
	if p.opts.Checkpoint == nil {
		return
	}
	fp, ok := fingerprintOf(src)
	if !ok {
		return
	}
	err := p.opts.Checkpoint.Mark(ctx, checkpoint.Entry{
		Fingerprint: fp,
		Source:      src.Name(),
		RunID:       p.agg.RunID(),
		Rows:        fo.rows,
		CompletedAt: time.Now().UTC(),
	})
	if err != nil {
		p.opts.Logger.Warn().Err(err).Str("file", src.Name()).Msg("checkpoint mark failed")
	}
}

// fingerprinter is implemented by sources whose content can be
// identified without reading it, such as local files.
type fingerprinter interface {
	Fingerprint() (string, bool)
}

func fingerprintOf(src sources.Source) (string, bool) {
	f, ok := src.(fingerprinter)
	if !ok {
		return "", false
	}
	return f.Fingerprint()
}
