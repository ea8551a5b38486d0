// Package model defines core data structures for logsieve.
package model

import "time"

// Field is a single name/value pair in a raw record.
// Value is always the raw input text; Null marks an explicit null
// (JSON null, or a column absent from a ragged CSV row is simply
// not present at all).
type Field struct {
	Name  string
	Value string
	Null  bool
}

// RawRecord is one log entry exactly as the loader produced it:
// an ordered field list plus provenance. Immutable after the loader
// emits it; validators only read it.
type RawRecord struct {
	// Fields preserves the input field order.
	Fields []Field

	// Source identifies the originating file or stream.
	Source string

	// Row is the 1-based data row index within Source.
	// For CSV the header is not counted.
	Row int64
}

// Get returns the field value by name. The second return reports
// whether the field is present, the third whether it is an explicit null.
func (r *RawRecord) Get(name string) (value string, present bool, null bool) {
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			return r.Fields[i].Value, true, r.Fields[i].Null
		}
	}
	return "", false, false
}

// Names returns the field names in input order.
func (r *RawRecord) Names() []string {
	names := make([]string, len(r.Fields))
	for i := range r.Fields {
		names[i] = r.Fields[i].Name
	}
	return names
}

// Clone returns a deep copy. Used when a record must outlive the
// loader's reuse of its buffers.
func (r *RawRecord) Clone() RawRecord {
	cp := RawRecord{
		Fields: make([]Field, len(r.Fields)),
		Source: r.Source,
		Row:    r.Row,
	}
	copy(cp.Fields, r.Fields)
	return cp
}

// ValidationOutcome is the per-record result of running both validators.
// Exactly one outcome exists per RawRecord, and each outcome routes the
// record to exactly one of the clean or bad streams.
type ValidationOutcome struct {
	Source string
	Row    int64

	// FieldIssues in deterministic order: spec declaration order first,
	// then unexpected fields in record order.
	FieldIssues []FieldIssue

	// Timestamp is nil when the timestamp field parsed and passed bounds.
	Timestamp *TimestampIssue

	// Normalized is the UTC instant for the record's timestamp.
	// Valid only when Timestamp is nil.
	Normalized time.Time

	Clean bool
}

// Issues returns the concatenated issue list, field issues first,
// then the timestamp issue if present.
func (o *ValidationOutcome) Issues() []Issue {
	out := make([]Issue, 0, len(o.FieldIssues)+1)
	for i := range o.FieldIssues {
		out = append(out, o.FieldIssues[i].Issue())
	}
	if o.Timestamp != nil {
		out = append(out, o.Timestamp.Issue())
	}
	return out
}

// CleanRecord is what survives of a clean row: the original raw value
// map plus the normalized timestamp, ready for tabular output.
type CleanRecord struct {
	Record     RawRecord
	Normalized time.Time
}

// BadRowEntry is a quarantined row: the untouched raw record plus its
// full issue list. Values are preserved byte-for-byte so the entry can
// be corrected and re-processed.
type BadRowEntry struct {
	Record RawRecord
	Issues []Issue
}
