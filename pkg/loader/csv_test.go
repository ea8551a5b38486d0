package loader

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/logsieve/logsieve/internal/model"
)

// collect runs a reader to completion and gathers its records.
func collect(t *testing.T, r Reader, input string) ([]model.RawRecord, error) {
	t.Helper()
	out := make(chan model.RawRecord, 64)
	var recs []model.RawRecord
	done := make(chan struct{})
	go func() {
		defer close(done)
		for rec := range out {
			recs = append(recs, rec)
		}
	}()
	err := r.Read(context.Background(), strings.NewReader(input), "test", out)
	close(out)
	<-done
	return recs, err
}

func fieldValue(t *testing.T, rec model.RawRecord, name string) string {
	t.Helper()
	v, present, _ := rec.Get(name)
	if !present {
		t.Fatalf("row %d: field %q absent, have %v", rec.Row, name, rec.Names())
	}
	return v
}

func TestCSVReaderBasic(t *testing.T) {
	input := "timestamp,user,action\n" +
		"2024-03-01T10:00:00Z,alice,success\n" +
		"2024-03-01T10:01:00Z,bob,failure\n"

	recs, err := collect(t, NewCSVReader(DefaultConfig()), input)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}

	if got := fieldValue(t, recs[0], "user"); got != "alice" {
		t.Errorf("row 1 user = %q, want alice", got)
	}
	if recs[0].Row != 1 || recs[1].Row != 2 {
		t.Errorf("rows = %d,%d, want 1,2", recs[0].Row, recs[1].Row)
	}
	if recs[1].Source != "test" {
		t.Errorf("source = %q, want test", recs[1].Source)
	}

	wantNames := []string{"timestamp", "user", "action"}
	for i, n := range recs[0].Names() {
		if n != wantNames[i] {
			t.Errorf("names[%d] = %q, want %q", i, n, wantNames[i])
		}
	}
}

func TestCSVReaderQuoting(t *testing.T) {
	input := "user,note\n" +
		`alice,"hello, world"` + "\n" +
		`bob,"she said ""hi"""` + "\n"

	recs, err := collect(t, NewCSVReader(DefaultConfig()), input)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := fieldValue(t, recs[0], "note"); got != "hello, world" {
		t.Errorf("quoted comma = %q, want %q", got, "hello, world")
	}
	if got := fieldValue(t, recs[1], "note"); got != `she said "hi"` {
		t.Errorf("escaped quote = %q, want %q", got, `she said "hi"`)
	}
}

func TestCSVReaderRaggedRows(t *testing.T) {
	input := "a,b,c\n" +
		"1,2\n" + // short: only the columns present
		"1,2,3,4\n" // surplus: synthesized name

	recs, err := collect(t, NewCSVReader(DefaultConfig()), input)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}

	if n := len(recs[0].Fields); n != 2 {
		t.Errorf("short row has %d fields, want 2", n)
	}
	if _, present, _ := recs[0].Get("c"); present {
		t.Error("short row has field c, want absent")
	}

	if got := fieldValue(t, recs[1], "column_4"); got != "4" {
		t.Errorf("surplus column_4 = %q, want 4", got)
	}
}

func TestCSVReaderTabDelimiter(t *testing.T) {
	r, err := NewReader(FormatTSV, DefaultConfig())
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	recs, err := collect(t, r, "user\taction\nalice\tsuccess\n")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := fieldValue(t, recs[0], "action"); got != "success" {
		t.Errorf("action = %q, want success", got)
	}
}

func TestCSVReaderEmptyInput(t *testing.T) {
	_, err := collect(t, NewCSVReader(DefaultConfig()), "")
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("Read(empty) error = %v, want ErrEmptyInput", err)
	}
}

func TestCSVReaderHeaderOnly(t *testing.T) {
	recs, err := collect(t, NewCSVReader(DefaultConfig()), "a,b,c\n")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("got %d records, want 0", len(recs))
	}
}

func TestCSVReaderSkipsBlankLines(t *testing.T) {
	recs, err := collect(t, NewCSVReader(DefaultConfig()), "a,b\n1,2\n\n3,4")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	// Row numbering counts emitted data rows, blank lines excluded.
	if recs[1].Row != 2 {
		t.Errorf("row = %d, want 2", recs[1].Row)
	}
	if got := fieldValue(t, recs[1], "b"); got != "4" {
		t.Errorf("no-final-newline value = %q, want 4", got)
	}
}

func TestCSVReaderCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan model.RawRecord, 1)
	err := NewCSVReader(DefaultConfig()).Read(ctx, strings.NewReader("a\n1\n2\n"), "test", out)
	if !errors.Is(err, ErrContextCanceled) {
		t.Errorf("Read(canceled) error = %v, want ErrContextCanceled", err)
	}
}

func TestNewReaderUnsupported(t *testing.T) {
	if _, err := NewReader(FormatUnknown, DefaultConfig()); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("NewReader(unknown) error = %v, want ErrUnsupportedFormat", err)
	}
}
