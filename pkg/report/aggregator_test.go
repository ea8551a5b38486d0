package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/logsieve/logsieve/internal/model"
)

func TestAggregatorCounts(t *testing.T) {
	a := NewAggregator()

	// One clean row, one with a missing timestamp, one unparseable.
	a.Add(model.ValidationOutcome{
		Clean:      true,
		Normalized: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	})
	a.Add(model.ValidationOutcome{
		Timestamp: &model.TimestampIssue{Kind: model.TimestampMissing, Field: "timestamp"},
	})
	a.Add(model.ValidationOutcome{
		Timestamp: &model.TimestampIssue{Kind: model.TimestampUnparseable, Field: "timestamp", Value: "zzz"},
	})

	r := a.Finalize()
	if r.Total != 3 || r.Clean != 1 || r.Bad != 2 {
		t.Errorf("totals = %d/%d/%d, want 3/1/2", r.Total, r.Clean, r.Bad)
	}
	if len(r.FieldIssues) != 0 {
		t.Errorf("fieldIssues = %v, want empty", r.FieldIssues)
	}
	if r.TimestampIssues["missing"] != 1 || r.TimestampIssues["unparseable"] != 1 {
		t.Errorf("timestampIssues = %v, want missing:1 unparseable:1", r.TimestampIssues)
	}
	if r.Partial {
		t.Error("Partial = true, want false")
	}
}

func TestAggregatorFieldIssues(t *testing.T) {
	a := NewAggregator()

	a.Add(model.ValidationOutcome{FieldIssues: []model.FieldIssue{
		{Kind: model.MissingField, Field: "user"},
		{Kind: model.TypeMismatch, Field: "src_ip"},
	}})
	a.Add(model.ValidationOutcome{FieldIssues: []model.FieldIssue{
		{Kind: model.MissingField, Field: "user"},
	}})

	r := a.Finalize()
	if got := r.FieldIssues["user"]["missing_field"]; got != 2 {
		t.Errorf("user missing_field = %d, want 2", got)
	}
	if got := r.FieldIssues["src_ip"]["type_mismatch"]; got != 1 {
		t.Errorf("src_ip type_mismatch = %d, want 1", got)
	}
}

func TestAggregatorCoverage(t *testing.T) {
	a := NewAggregator()

	early := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	late := time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC)
	mid := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	a.Add(model.ValidationOutcome{Clean: true, Normalized: mid})
	a.Add(model.ValidationOutcome{Clean: true, Normalized: late})
	a.Add(model.ValidationOutcome{Clean: true, Normalized: early})
	// Bad for schema reasons only: its valid timestamp still widens
	// coverage.
	a.Add(model.ValidationOutcome{
		Normalized:  time.Date(2024, 3, 1, 19, 0, 0, 0, time.UTC),
		FieldIssues: []model.FieldIssue{{Kind: model.MissingField, Field: "user"}},
	})
	// Bad for timestamp reasons contributes nothing.
	a.Add(model.ValidationOutcome{
		Timestamp: &model.TimestampIssue{Kind: model.TimestampMissing},
	})

	r := a.Finalize()
	if r.TimestampCoverage.Min != "2024-03-01T08:00:00Z" {
		t.Errorf("min = %q, want 2024-03-01T08:00:00Z", r.TimestampCoverage.Min)
	}
	if r.TimestampCoverage.Max != "2024-03-01T19:00:00Z" {
		t.Errorf("max = %q, want 2024-03-01T19:00:00Z", r.TimestampCoverage.Max)
	}
}

func TestAggregatorEmptyRun(t *testing.T) {
	r := NewAggregator().Finalize()
	if r.Total != 0 {
		t.Errorf("Total = %d, want 0", r.Total)
	}
	if r.TimestampCoverage.Min != "" || r.TimestampCoverage.Max != "" {
		t.Errorf("coverage = %+v, want empty", r.TimestampCoverage)
	}
	if r.FileFailures == nil {
		t.Error("FileFailures = nil, want empty slice")
	}
	if got := r.CleanRatio(); got != 1 {
		t.Errorf("CleanRatio() = %v, want 1", got)
	}
}

func TestAggregatorFileFailures(t *testing.T) {
	a := NewAggregator()
	a.AddFileFailure("b.csv", "empty input")
	a.AddFileFailure("a.csv", "file not found")

	r := a.Finalize()
	want := []FileFailure{
		{File: "b.csv", Reason: "empty input"},
		{File: "a.csv", Reason: "file not found"},
	}
	if len(r.FileFailures) != len(want) {
		t.Fatalf("FileFailures = %v, want %v", r.FileFailures, want)
	}
	for i := range want {
		if r.FileFailures[i] != want[i] {
			t.Errorf("FileFailures[%d] = %v, want %v", i, r.FileFailures[i], want[i])
		}
	}
}

func TestAggregatorPartial(t *testing.T) {
	a := NewAggregator()
	a.MarkPartial()
	if !a.Finalize().Partial {
		t.Error("Partial = false, want true")
	}
}

func TestReportRoundTrip(t *testing.T) {
	a := NewAggregator()
	a.Add(model.ValidationOutcome{Clean: true, Normalized: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)})
	a.AddFileFailure("x.csv", "undecodable")
	orig := a.Finalize()

	var buf bytes.Buffer
	if err := orig.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if got.RunID != orig.RunID {
		t.Errorf("RunID = %q, want %q", got.RunID, orig.RunID)
	}
	if got.Total != 1 || got.Clean != 1 {
		t.Errorf("totals = %d/%d, want 1/1", got.Total, got.Clean)
	}
	if len(got.FileFailures) != 1 || got.FileFailures[0].File != "x.csv" {
		t.Errorf("FileFailures = %v", got.FileFailures)
	}
	if !got.MinTime().Equal(orig.MinTime()) {
		t.Errorf("MinTime = %v, want %v", got.MinTime(), orig.MinTime())
	}
}

func TestRunIDUnique(t *testing.T) {
	if NewAggregator().RunID() == NewAggregator().RunID() {
		t.Error("two aggregators share a run ID")
	}
}
