package sources

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touch(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFileSourceOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.csv")
	touch(t, path, "timestamp,user\n")

	src := NewFileSource(path, 0)
	if src.Name() != path {
		t.Errorf("Name() = %q, want %q", src.Name(), path)
	}

	rc, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "timestamp,user\n" {
		t.Errorf("content = %q", data)
	}
}

func TestFileSourceOpenMissing(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "missing.csv"), 0)
	if _, err := src.Open(context.Background()); err == nil {
		t.Error("Open(missing) error = nil, want error")
	}
}

func TestFileSourceFingerprint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.csv")
	touch(t, path, "one\n")

	src := NewFileSource(path, 0)
	fp1, ok := src.Fingerprint()
	if !ok || fp1 == "" {
		t.Fatalf("Fingerprint() = %q, %v", fp1, ok)
	}

	// Same content, same stat: fingerprint is stable.
	fp2, _ := src.Fingerprint()
	if fp1 != fp2 {
		t.Errorf("fingerprint unstable: %q vs %q", fp1, fp2)
	}

	// Growing the file must change it.
	touch(t, path, "one\ntwo\n")
	fp3, ok := src.Fingerprint()
	if !ok {
		t.Fatal("Fingerprint() after change not ok")
	}
	if fp3 == fp1 {
		t.Error("fingerprint unchanged after file modification")
	}

	missing := NewFileSource(filepath.Join(t.TempDir(), "gone.csv"), 0)
	if _, ok := missing.Fingerprint(); ok {
		t.Error("Fingerprint(missing) ok = true, want false")
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.csv", "c.jsonl"} {
		touch(t, filepath.Join(dir, name), "x\n")
	}

	srcs, err := Resolve(context.Background(), []string{
		filepath.Join(dir, "c.jsonl"),
		filepath.Join(dir, "*.csv"),
	}, ResolveOptions{OpenTimeout: time.Second})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	// Argument order is preserved; the glob expands sorted in place.
	want := []string{
		filepath.Join(dir, "c.jsonl"),
		filepath.Join(dir, "a.csv"),
		filepath.Join(dir, "b.csv"),
	}
	if len(srcs) != len(want) {
		t.Fatalf("got %d sources, want %d", len(srcs), len(want))
	}
	for i, w := range want {
		if srcs[i].Name() != w {
			t.Errorf("srcs[%d] = %q, want %q", i, srcs[i].Name(), w)
		}
	}
}

func TestResolveGlobNoMatches(t *testing.T) {
	srcs, err := Resolve(context.Background(), []string{filepath.Join(t.TempDir(), "*.csv")}, ResolveOptions{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(srcs) != 0 {
		t.Errorf("got %d sources, want 0", len(srcs))
	}
}
