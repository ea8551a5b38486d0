package sources

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/logsieve/logsieve/pkg/util"
)

// FileSource reads a local file.
type FileSource struct {
	path    string
	timeout time.Duration
}

// NewFileSource creates a file source. The timeout bounds Open so a
// wedged filesystem resolves to an error instead of hanging the run.
func NewFileSource(path string, timeout time.Duration) *FileSource {
	return &FileSource{path: path, timeout: timeout}
}

// Name returns the file path.
func (f *FileSource) Name() string { return f.path }

// Open opens the file, respecting the configured timeout.
func (f *FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	type result struct {
		file *os.File
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		file, err := os.Open(f.path)
		ch <- result{file, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, res.err
		}
		// Compressed exports are transparent to the rest of the
		// pipeline; format detection runs on the decompressed bytes.
		return util.MaybeGunzip(f.path, res.file)
	case <-ctx.Done():
		// Leave the goroutine to close the handle when the open
		// eventually returns.
		go func() {
			if res := <-ch; res.file != nil {
				res.file.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

// Fingerprint identifies the file's current content for checkpointing:
// path plus size plus modification time. A changed file gets a new
// fingerprint and is re-validated.
func (f *FileSource) Fingerprint() (string, bool) {
	info, err := os.Stat(f.path)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%s|%d|%d", f.path, info.Size(), info.ModTime().UnixNano()), true
}

// Glob expands a pattern into file sources in sorted order, so the same
// pattern always yields the same declared input order.
func Glob(pattern string) ([]Source, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}

	out := make([]Source, 0, len(matches))
	for _, m := range matches {
		out = append(out, NewFileSource(m, 0))
	}
	sortSources(out)
	return out, nil
}
