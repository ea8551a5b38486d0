package checkpoint

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func entry(fp string) Entry {
	return Entry{
		Fingerprint: fp,
		Source:      "auth.csv",
		RunID:       "run-1",
		Rows:        100,
		CompletedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	seen, err := s.Seen(ctx, "fp-1")
	if err != nil || seen {
		t.Errorf("Seen(fresh) = %v, %v, want false, nil", seen, err)
	}

	if err := s.Mark(ctx, entry("fp-1")); err != nil {
		t.Fatalf("Mark: %v", err)
	}
	seen, err = s.Seen(ctx, "fp-1")
	if err != nil || !seen {
		t.Errorf("Seen(marked) = %v, %v, want true, nil", seen, err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger", "checkpoints.jsonl")

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := s.Mark(ctx, entry("fp-1")); err != nil {
		t.Fatalf("Mark: %v", err)
	}
	if err := s.Mark(ctx, entry("fp-2")); err != nil {
		t.Fatalf("Mark: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore(reopen): %v", err)
	}
	defer reopened.Close()

	for _, fp := range []string{"fp-1", "fp-2"} {
		seen, err := reopened.Seen(ctx, fp)
		if err != nil || !seen {
			t.Errorf("Seen(%q) after reopen = %v, %v, want true, nil", fp, seen, err)
		}
	}
	if seen, _ := reopened.Seen(ctx, "fp-3"); seen {
		t.Error("Seen(fp-3) = true, want false")
	}
}

func TestFileStoreMarkIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "checkpoints.jsonl")

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := s.Mark(ctx, entry("fp-1")); err != nil {
			t.Fatalf("Mark #%d: %v", i, err)
		}
	}
	s.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	if lines != 1 {
		t.Errorf("ledger has %d lines, want 1", lines)
	}
}

func TestFileStoreSkipsTornLines(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "checkpoints.jsonl")

	good := `{"fingerprint":"fp-1","source":"a.csv","runId":"r","rows":1,"completedAt":"2024-03-01T10:00:00Z"}` + "\n"
	torn := `{"fingerprint":"fp-2","sour`
	if err := os.WriteFile(path, []byte(good+torn), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	defer s.Close()

	if seen, _ := s.Seen(ctx, "fp-1"); !seen {
		t.Error("Seen(fp-1) = false, want true")
	}
	if seen, _ := s.Seen(ctx, "fp-2"); seen {
		t.Error("Seen(fp-2) = true, want false: torn line must be skipped")
	}
}

func TestFileStoreClosedRejectsMark(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoints.jsonl")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	s.Close()
	if err := s.Mark(context.Background(), entry("fp-1")); err == nil {
		t.Error("Mark after Close error = nil, want error")
	}
}
