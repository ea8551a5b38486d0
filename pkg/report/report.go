// Package report accumulates validation outcomes into a data-quality
// report. Accumulation is a single streaming fold: O(1) memory beyond
// the counters, and commutative over row order for everything except
// timestamp coverage and the file-failure list.
package report

import (
	"encoding/json"
	"io"
	"time"
)

// FileFailure records one unreadable or undecodable input file. Files
// in this list contributed zero records to the totals.
type FileFailure struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// Coverage is the min/max successfully parsed instant across the run.
type Coverage struct {
	Min string `json:"min,omitempty"`
	Max string `json:"max,omitempty"`
}

// QualityReport is the machine-readable run summary.
type QualityReport struct {
	RunID string `json:"runId"`

	Total int64 `json:"total"`
	Clean int64 `json:"clean"`
	Bad   int64 `json:"bad"`

	// FieldIssues maps field name → issue kind → count.
	FieldIssues map[string]map[string]int64 `json:"fieldIssues"`

	// TimestampIssues maps issue kind → count.
	TimestampIssues map[string]int64 `json:"timestampIssues"`

	TimestampCoverage Coverage `json:"timestampCoverage"`

	// FileFailures in input declaration order.
	FileFailures []FileFailure `json:"fileFailures"`

	// Partial marks a report produced after cancellation: completed
	// files are covered, the rest are not.
	Partial bool `json:"partial,omitempty"`
}

// Write marshals the report as indented JSON.
func (r *QualityReport) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Read parses a report from JSON.
func Read(rd io.Reader) (*QualityReport, error) {
	var r QualityReport
	if err := json.NewDecoder(rd).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// CleanRatio returns clean/total, or 1 for an empty run.
func (r *QualityReport) CleanRatio() float64 {
	if r.Total == 0 {
		return 1
	}
	return float64(r.Clean) / float64(r.Total)
}

// MinTime parses the coverage minimum, zero when absent.
func (r *QualityReport) MinTime() time.Time {
	t, _ := time.Parse(time.RFC3339Nano, r.TimestampCoverage.Min)
	return t
}

// MaxTime parses the coverage maximum, zero when absent.
func (r *QualityReport) MaxTime() time.Time {
	t, _ := time.Parse(time.RFC3339Nano, r.TimestampCoverage.Max)
	return t
}
