package util

import (
	"bytes"
	"compress/gzip"
	"io"
	"testing"
)

func TestIsGzipPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"auth.csv.gz", true},
		{"auth.CSV.GZ", true},
		{"auth.csv", false},
		{"auth.gzip", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsGzipPath(tt.path); got != tt.want {
			t.Errorf("IsGzipPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestBaseFormat(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"auth.jsonl.gz", ".jsonl"},
		{"auth.csv", ".csv"},
		{"AUTH.TSV", ".tsv"},
		{"archive.gz", ""},
		{"noext", ""},
	}
	for _, tt := range tests {
		if got := BaseFormat(tt.path); got != tt.want {
			t.Errorf("BaseFormat(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestMaybeGunzip(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	gw.Write([]byte("timestamp,user\n"))
	gw.Close()

	src := &closeTracker{Reader: &buf}
	rc, err := MaybeGunzip("auth.csv.gz", src)
	if err != nil {
		t.Fatalf("MaybeGunzip: %v", err)
	}
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "timestamp,user\n" {
		t.Errorf("decompressed = %q, want %q", data, "timestamp,user\n")
	}
	if err := rc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !src.closed {
		t.Error("underlying source not closed")
	}
}

func TestMaybeGunzipPassThrough(t *testing.T) {
	src := &closeTracker{Reader: bytes.NewReader([]byte("plain"))}
	rc, err := MaybeGunzip("auth.csv", src)
	if err != nil {
		t.Fatalf("MaybeGunzip: %v", err)
	}
	if rc != io.ReadCloser(src) {
		t.Error("plain path should return the source unchanged")
	}
}

func TestMaybeGunzipBadHeader(t *testing.T) {
	src := &closeTracker{Reader: bytes.NewReader([]byte("not gzip"))}
	if _, err := MaybeGunzip("auth.csv.gz", src); err == nil {
		t.Fatal("MaybeGunzip(bad header) error = nil, want error")
	}
	if !src.closed {
		t.Error("source not closed after failed gzip init")
	}
}
