package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/logsieve/logsieve/internal/model"
)

// Aggregator folds a stream of validation outcomes into a
// QualityReport. One pass, no record retention: finalization is a pure
// function of the counters.
//
// Not safe for concurrent use; the pipeline feeds it from the single
// merged, ordered outcome stream.
type Aggregator struct {
	runID string

	total int64
	clean int64
	bad   int64

	fieldIssues map[string]map[string]int64
	tsIssues    map[string]int64

	minTS time.Time
	maxTS time.Time

	fileFailures []FileFailure
	partial      bool
}

// NewAggregator creates an aggregator with a fresh run ID.
func NewAggregator() *Aggregator {
	return &Aggregator{
		runID:       uuid.NewString(),
		fieldIssues: make(map[string]map[string]int64),
		tsIssues:    make(map[string]int64),
	}
}

// RunID returns the run identifier stamped on the report and on
// quarantine entries.
func (a *Aggregator) RunID() string { return a.runID }

// Add folds one outcome into the counters.
func (a *Aggregator) Add(o model.ValidationOutcome) {
	a.total++
	if o.Clean {
		a.clean++
		a.observeInstant(o.Normalized)
	} else {
		a.bad++
	}

	for _, fi := range o.FieldIssues {
		kinds := a.fieldIssues[fi.Field]
		if kinds == nil {
			kinds = make(map[string]int64)
			a.fieldIssues[fi.Field] = kinds
		}
		kinds[fi.Kind.String()]++
	}

	if o.Timestamp != nil {
		a.tsIssues[o.Timestamp.Kind.String()]++
	} else if !o.Clean {
		// Bad for schema reasons only: its timestamp still counts
		// toward coverage.
		a.observeInstant(o.Normalized)
	}
}

// AddFileFailure records a file-level failure. Failures are appended in
// call order; the pipeline calls in file-declaration order.
func (a *Aggregator) AddFileFailure(file, reason string) {
	a.fileFailures = append(a.fileFailures, FileFailure{File: file, Reason: reason})
}

// MarkPartial flags the run as cancelled before full coverage.
func (a *Aggregator) MarkPartial() { a.partial = true }

func (a *Aggregator) observeInstant(t time.Time) {
	if t.IsZero() {
		return
	}
	if a.minTS.IsZero() || t.Before(a.minTS) {
		a.minTS = t
	}
	if a.maxTS.IsZero() || t.After(a.maxTS) {
		a.maxTS = t
	}
}

// Finalize produces the report. Pure function of the accumulated
// counters; safe to call more than once.
func (a *Aggregator) Finalize() *QualityReport {
	r := &QualityReport{
		RunID:           a.runID,
		Total:           a.total,
		Clean:           a.clean,
		Bad:             a.bad,
		FieldIssues:     a.fieldIssues,
		TimestampIssues: a.tsIssues,
		FileFailures:    a.fileFailures,
		Partial:         a.partial,
	}
	if r.FileFailures == nil {
		r.FileFailures = []FileFailure{}
	}
	if !a.minTS.IsZero() {
		r.TimestampCoverage.Min = a.minTS.UTC().Format(time.RFC3339Nano)
		r.TimestampCoverage.Max = a.maxTS.UTC().Format(time.RFC3339Nano)
	}
	return r
}
