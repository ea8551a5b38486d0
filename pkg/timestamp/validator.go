package timestamp

import (
	"strings"
	"time"

	"github.com/logsieve/logsieve/internal/model"
)

// Bounds are the configured plausibility window. Parsed instants
// before Floor or after now+Tolerance are flagged out of range.
type Bounds struct {
	Floor     time.Time
	Tolerance time.Duration

	// now is overridable for tests.
	now func() time.Time
}

// DefaultBounds floors at the Unix epoch and tolerates a day of clock
// skew into the future.
func DefaultBounds() Bounds {
	return Bounds{
		Floor:     time.Unix(0, 0).UTC(),
		Tolerance: 24 * time.Hour,
	}
}

// Validator validates and normalizes one record's timestamp field.
// Safe for concurrent use: all state is read-only after construction.
type Validator struct {
	field   string
	formats []Format
	bounds  Bounds

	// prefer optionally names a candidate that wins an ambiguity it is
	// part of. This is the caller-supplied disambiguation rule; absent
	// it, ambiguous values are always quarantined.
	prefer string
}

// Option configures a Validator.
type Option func(*Validator)

// WithBounds overrides the plausibility bounds.
func WithBounds(b Bounds) Option {
	return func(v *Validator) { v.bounds = b }
}

// WithPreferred declares an explicit disambiguation rule: when the
// named candidate is among the ambiguous matches, it is selected
// instead of quarantining the record.
func WithPreferred(formatName string) Option {
	return func(v *Validator) { v.prefer = strings.ToLower(formatName) }
}

// NewValidator creates a validator for the named timestamp field with
// an ordered candidate list.
func NewValidator(field string, formats []Format, opts ...Option) *Validator {
	v := &Validator{
		field:   field,
		formats: formats,
		bounds:  DefaultBounds(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.bounds.now == nil {
		v.bounds.now = time.Now
	}
	return v
}

// Field returns the configured timestamp field name.
func (v *Validator) Field() string { return v.field }

// Validate checks the record's timestamp field. On success the issue is
// nil and the returned instant is the normalized UTC timestamp.
func (v *Validator) Validate(rec *model.RawRecord) (time.Time, *model.TimestampIssue) {
	raw, present, null := rec.Get(v.field)
	if !present || null || strings.TrimSpace(raw) == "" {
		return time.Time{}, &model.TimestampIssue{
			Kind:  model.TimestampMissing,
			Field: v.field,
			Value: raw,
		}
	}

	value := strings.TrimSpace(raw)

	// Attempt every candidate in declared order, collecting matches.
	var matches []match
	for _, f := range v.formats {
		if t, ok := f.tryParse(value); ok {
			matches = append(matches, match{name: f.Name, instant: t})
		}
	}

	if len(matches) == 0 {
		return time.Time{}, &model.TimestampIssue{
			Kind:  model.TimestampUnparseable,
			Field: v.field,
			Value: value,
		}
	}

	// Several candidates agreeing on the same instant is not ambiguous:
	// the day/month swap only matters when the resulting instants differ.
	instant := matches[0].instant
	var distinct []string
	for _, m := range matches {
		if !m.instant.Equal(instant) {
			if len(distinct) == 0 {
				distinct = append(distinct, matches[0].name)
			}
			distinct = append(distinct, m.name)
		}
	}

	if len(distinct) > 1 {
		t, ok := time.Time{}, false
		if v.prefer != "" {
			t, ok = v.resolvePreferred(matches)
		}
		if !ok {
			return time.Time{}, v.ambiguous(value, distinct)
		}
		instant = t
	}

	return v.checkBounds(instant, value)
}

// CanParse reports whether any candidate matches the value. Used by the
// schema validator for timestamp-typed fields other than the designated
// timestamp field, where ambiguity and bounds do not apply.
func (v *Validator) CanParse(value string) bool {
	value = strings.TrimSpace(value)
	for _, f := range v.formats {
		if _, ok := f.tryParse(value); ok {
			return true
		}
	}
	return false
}

// match pairs a candidate name with the instant it produced.
type match struct {
	name    string
	instant time.Time
}

func (v *Validator) resolvePreferred(matches []match) (time.Time, bool) {
	for _, m := range matches {
		if strings.ToLower(m.name) == v.prefer {
			return m.instant, true
		}
	}
	return time.Time{}, false
}

func (v *Validator) ambiguous(value string, candidates []string) *model.TimestampIssue {
	return &model.TimestampIssue{
		Kind:       model.TimestampAmbiguous,
		Field:      v.field,
		Value:      value,
		Candidates: candidates,
	}
}

func (v *Validator) checkBounds(t time.Time, value string) (time.Time, *model.TimestampIssue) {
	if t.Before(v.bounds.Floor) {
		return time.Time{}, &model.TimestampIssue{
			Kind:  model.TimestampOutOfRange,
			Field: v.field,
			Value: value,
			Bound: "floor",
		}
	}
	if ceiling := v.bounds.now().Add(v.bounds.Tolerance); t.After(ceiling) {
		return time.Time{}, &model.TimestampIssue{
			Kind:  model.TimestampOutOfRange,
			Field: v.field,
			Value: value,
			Bound: "ceiling",
		}
	}
	return t.UTC(), nil
}
