package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/logsieve/logsieve/internal/model"
	sieveerr "github.com/logsieve/logsieve/pkg/errors"
	"github.com/logsieve/logsieve/pkg/loader"
	"github.com/logsieve/logsieve/pkg/loader/sources"
)

// detectSampleSize is how many leading bytes feed format detection.
const detectSampleSize = 4096

// processFile opens, detects, parses, and classifies one source. All
// failures end up in fo.failure; the only thing that stops a worker
// without a failure record is context cancellation.
func (p *Pipeline) processFile(ctx context.Context, src sources.Source, fo *fileOutcome) {
	if p.skipUnchanged(ctx, src, fo) {
		return
	}

	rc, err := src.Open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		fo.failure = sieveerr.Wrapf(err, sieveerr.CodeFileNotFound, "unreadable: %v", err)
		return
	}
	defer rc.Close()

	sample := make([]byte, detectSampleSize)
	n, err := io.ReadFull(rc, sample)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		fo.failure = sieveerr.Wrapf(err, sieveerr.CodeFilePermission, "unreadable: %v", err)
		return
	}
	sample = sample[:n]
	if len(bytes.TrimSpace(sample)) == 0 {
		fo.failure = sieveerr.New(sieveerr.CodeUndecodable, "empty input")
		return
	}

	format := loader.DetectFormat(src.Name(), sample)
	reader, err := loader.NewReader(format, p.opts.Loader)
	if err != nil {
		fo.failure = sieveerr.Wrapf(err, sieveerr.CodeInvalidFormat, "undecodable: unsupported format %s", format)
		return
	}

	body := io.MultiReader(bytes.NewReader(sample), rc)
	rawCh := make(chan model.RawRecord, p.opts.BufferSize)
	readErr := make(chan error, 1)
	go func() {
		defer close(rawCh)
		readErr <- reader.Read(ctx, body, src.Name(), rawCh)
	}()

	for rec := range rawCh {
		rec := rec
		outcome := p.classifier.Classify(&rec)
		p.metrics.RowsRead.Add(1)
		select {
		case fo.results <- rowResult{rec: &rec, outcome: outcome}:
			fo.rows++
		case <-ctx.Done():
			// Drain so the reader goroutine can finish.
			for range rawCh {
			}
			<-readErr
			return
		}
	}

	if err := <-readErr; err != nil && ctx.Err() == nil {
		fo.failure = classifyReadError(err)
	}
}

// skipUnchanged consults the checkpoint store. A lookup error is
// treated as not-seen; re-validating is always safe.
func (p *Pipeline) skipUnchanged(ctx context.Context, src sources.Source, fo *fileOutcome) bool {
	if p.opts.Checkpoint == nil {
		return false
	}
	fp, ok := fingerprintOf(src)
	if !ok {
		return false
	}
	seen, err := p.opts.Checkpoint.Seen(ctx, fp)
	if err != nil {
		p.opts.Logger.Warn().Err(err).Str("file", src.Name()).Msg("checkpoint lookup failed")
		return false
	}
	fo.skipped = seen
	return seen
}

func classifyReadError(err error) *sieveerr.SieveError {
	switch {
	case errors.Is(err, loader.ErrEmptyInput):
		return sieveerr.Wrap(err, sieveerr.CodeUndecodable, "empty input")
	case errors.Is(err, loader.ErrMalformedInput):
		return sieveerr.Wrap(err, sieveerr.CodeUndecodable, "malformed container")
	default:
		return sieveerr.Wrapf(err, sieveerr.CodeUndecodable, "undecodable: %v", err)
	}
}
