package classify

import (
	"testing"
	"time"

	"github.com/logsieve/logsieve/internal/model"
	"github.com/logsieve/logsieve/pkg/schema"
	"github.com/logsieve/logsieve/pkg/timestamp"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	spec := schema.DefaultAuthSpec()
	tv := timestamp.NewValidator("timestamp", timestamp.DefaultFormats())
	sv := schema.NewValidator(spec,
		schema.WithTimestampField(tv.Field()),
		schema.WithTimestampCheck(tv.CanParse),
	)
	return New(sv, tv)
}

func record(pairs ...string) *model.RawRecord {
	r := &model.RawRecord{Source: "auth.csv", Row: 7}
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Fields = append(r.Fields, model.Field{Name: pairs[i], Value: pairs[i+1]})
	}
	return r
}

func TestClassifyClean(t *testing.T) {
	c := newTestClassifier(t)

	o := c.Classify(record("timestamp", "2024-03-01T10:00:00Z", "user", "alice", "action", "success"))
	if !o.Clean {
		t.Fatalf("Clean = false, issues = %v", o.Issues())
	}
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if !o.Normalized.Equal(want) {
		t.Errorf("Normalized = %v, want %v", o.Normalized, want)
	}
	if o.Source != "auth.csv" || o.Row != 7 {
		t.Errorf("provenance = %s:%d, want auth.csv:7", o.Source, o.Row)
	}
}

func TestClassifyIssueOrder(t *testing.T) {
	c := newTestClassifier(t)

	// Field issues come first, the timestamp issue last.
	o := c.Classify(record("timestamp", "not-a-time", "action", "granted"))
	if o.Clean {
		t.Fatal("Clean = true, want false")
	}

	issues := o.Issues()
	want := []model.Issue{
		{Field: "user", Kind: "missing_field", Detail: "required field absent"},
		{Field: "action", Kind: "type_mismatch", Detail: `expected enum, got "granted" not in allowed values`},
		{Field: "timestamp", Kind: "unparseable", Detail: `no configured format matches "not-a-time"`},
	}
	if len(issues) != len(want) {
		t.Fatalf("Issues() = %v, want %d issues", issues, len(want))
	}
	for i := range want {
		if issues[i] != want[i] {
			t.Errorf("issues[%d] = %+v, want %+v", i, issues[i], want[i])
		}
	}
}

func TestRouteExactlyOne(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name      string
		rec       *model.RawRecord
		wantClean bool
	}{
		{"clean", record("timestamp", "2024-03-01T10:00:00Z", "user", "alice"), true},
		{"schema bad", record("timestamp", "2024-03-01T10:00:00Z", "user", "alice", "extra", "x"), false},
		{"timestamp bad", record("timestamp", "nope", "user", "alice"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := c.Classify(tt.rec)
			clean, bad := Route(tt.rec, o)
			if (clean != nil) == (bad != nil) {
				t.Fatalf("Route() = (%v, %v), want exactly one non-nil", clean, bad)
			}
			if tt.wantClean != (clean != nil) {
				t.Errorf("Route() clean = %v, want %v", clean != nil, tt.wantClean)
			}
			if bad != nil && len(bad.Issues) == 0 {
				t.Error("bad entry has no issues")
			}
		})
	}
}

func TestRoutePreservesRawValues(t *testing.T) {
	c := newTestClassifier(t)

	rec := record("timestamp", "not-a-time", "user", "alice")
	_, bad := Route(rec, c.Classify(rec))
	if bad == nil {
		t.Fatal("bad = nil")
	}
	v, present, _ := bad.Record.Get("timestamp")
	if !present || v != "not-a-time" {
		t.Errorf("quarantined timestamp = %q, want raw value preserved", v)
	}

	// The routed copy must not alias the original record's fields.
	rec.Fields[0].Value = "mutated"
	v, _, _ = bad.Record.Get("timestamp")
	if v != "not-a-time" {
		t.Error("bad entry aliases the source record")
	}
}
