// Package classify combines the schema and timestamp validators'
// findings into a single per-record outcome and routes each record to
// exactly one of the clean or bad streams.
package classify

import (
	"github.com/logsieve/logsieve/internal/model"
	"github.com/logsieve/logsieve/pkg/schema"
	"github.com/logsieve/logsieve/pkg/timestamp"
)

// Classifier runs both validators against a record and produces its
// ValidationOutcome. Stateless and safe for concurrent use.
type Classifier struct {
	schema *schema.Validator
	ts     *timestamp.Validator
}

// New creates a classifier from the two validators.
func New(sv *schema.Validator, tv *timestamp.Validator) *Classifier {
	return &Classifier{schema: sv, ts: tv}
}

// Classify produces the record's outcome. A record is clean iff the
// field issue list is empty and there is no timestamp issue. The issue
// order is deterministic regardless of validator execution order:
// field issues first (spec order, then unexpected in record order),
// then the timestamp issue.
func (c *Classifier) Classify(rec *model.RawRecord) model.ValidationOutcome {
	fieldIssues := c.schema.Validate(rec)
	normalized, tsIssue := c.ts.Validate(rec)

	return model.ValidationOutcome{
		Source:      rec.Source,
		Row:         rec.Row,
		FieldIssues: fieldIssues,
		Timestamp:   tsIssue,
		Normalized:  normalized,
		Clean:       len(fieldIssues) == 0 && tsIssue == nil,
	}
}

// Route splits a record by its outcome. Exactly one of the returns is
// non-nil. Clean keeps only the raw map plus the normalized timestamp;
// bad keeps the full record with its concatenated issue list, values
// untouched for re-processing.
func Route(rec *model.RawRecord, outcome model.ValidationOutcome) (*model.CleanRecord, *model.BadRowEntry) {
	if outcome.Clean {
		return &model.CleanRecord{
			Record:     rec.Clone(),
			Normalized: outcome.Normalized,
		}, nil
	}
	return nil, &model.BadRowEntry{
		Record: rec.Clone(),
		Issues: outcome.Issues(),
	}
}
