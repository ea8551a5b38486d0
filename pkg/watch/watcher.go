// Package watch re-validates log files as collectors drop them into a
// directory. New and rewritten files trigger the OnChange callback
// after a debounce window, so a file still being copied is picked up
// once, not on every write.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// logExtensions are the file suffixes worth validating.
var logExtensions = map[string]bool{
	".csv":   true,
	".tsv":   true,
	".json":  true,
	".jsonl": true,
	".ndjson": true,
	".log":   true,
	".xlsx":  true,
}

// Watcher monitors directories for new or changed log files.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	log      zerolog.Logger

	mu    sync.Mutex
	known map[string]fileState

	// OnChange runs for each settled file, serially from the watch
	// loop. A returned error is logged, never fatal: the next drop
	// still gets validated.
	OnChange func(ctx context.Context, path string) error
}

type fileState struct {
	modTime time.Time
	size    int64
}

// New creates a watcher.
func New(log zerolog.Logger, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		fs:       fsw,
		debounce: debounce,
		log:      log,
		known:    make(map[string]fileState),
	}, nil
}

// Add starts watching a directory.
func (w *Watcher) Add(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	// Seed known state so files already present are not re-validated
	// on startup; only subsequent changes fire.
	entries, err := os.ReadDir(abs)
	if err != nil {
		return err
	}
	w.mu.Lock()
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if info, err := e.Info(); err == nil {
			w.known[filepath.Join(abs, e.Name())] = fileState{modTime: info.ModTime(), size: info.Size()}
		}
	}
	w.mu.Unlock()

	return w.fs.Add(abs)
}

// Run blocks until the context is canceled, dispatching settled file
// changes to OnChange.
func (w *Watcher) Run(ctx context.Context) error {
	timers := make(map[string]*time.Timer)
	var timerMu sync.Mutex
	settled := make(chan string)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case path := <-settled:
			w.dispatch(ctx, path)

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			path, err := filepath.Abs(event.Name)
			if err != nil || !logExtensions[strings.ToLower(filepath.Ext(path))] {
				continue
			}

			timerMu.Lock()
			if t, ok := timers[path]; ok {
				t.Stop()
			}
			timers[path] = time.AfterFunc(w.debounce, func() {
				select {
				case settled <- path:
				case <-ctx.Done():
				}
			})
			timerMu.Unlock()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watch error")
		}
	}
}

// dispatch re-checks that the file really changed before invoking the
// callback; editors and copy tools fire spurious events.
func (w *Watcher) dispatch(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil {
		// Deleted between the event and the debounce window.
		w.mu.Lock()
		delete(w.known, path)
		w.mu.Unlock()
		return
	}

	w.mu.Lock()
	prev, seen := w.known[path]
	if seen && prev.modTime.Equal(info.ModTime()) && prev.size == info.Size() {
		w.mu.Unlock()
		return
	}
	w.known[path] = fileState{modTime: info.ModTime(), size: info.Size()}
	w.mu.Unlock()

	w.log.Info().Str("file", path).Msg("change detected")
	if w.OnChange == nil {
		return
	}
	if err := w.OnChange(ctx, path); err != nil {
		w.log.Error().Err(err).Str("file", path).Msg("re-validation failed")
	}
}

// Close stops the underlying notifier.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
