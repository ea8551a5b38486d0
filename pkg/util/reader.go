// Package util provides utility functions for file operations.
package util

import (
	"compress/gzip"
	"io"
	"path/filepath"
	"strings"
)

// IsGzipPath returns true if the path indicates gzip compression.
func IsGzipPath(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".gz")
}

// StripCompression removes the .gz suffix from a path, so format
// detection sees the underlying extension.
func StripCompression(path string) string {
	if IsGzipPath(path) {
		return path[:len(path)-3]
	}
	return path
}

// BaseFormat extracts the format extension after stripping compression.
// "auth.jsonl.gz" yields ".jsonl".
func BaseFormat(path string) string {
	return strings.ToLower(filepath.Ext(StripCompression(path)))
}

// gzipReadCloser closes both the gzip layer and the underlying source.
type gzipReadCloser struct {
	*gzip.Reader
	under io.Closer
}

func (g *gzipReadCloser) Close() error {
	gzErr := g.Reader.Close()
	if err := g.under.Close(); err != nil {
		return err
	}
	return gzErr
}

// MaybeGunzip wraps rc with transparent gzip decompression when the
// path says so. Closing the returned reader closes rc too.
func MaybeGunzip(path string, rc io.ReadCloser) (io.ReadCloser, error) {
	if !IsGzipPath(path) {
		return rc, nil
	}
	gz, err := gzip.NewReader(rc)
	if err != nil {
		rc.Close()
		return nil, err
	}
	return &gzipReadCloser{Reader: gz, under: rc}, nil
}
