// Package checkpoint remembers which inputs a previous run already
// validated, so unchanged files can be skipped on re-runs. Entries are
// keyed by a source fingerprint (path, size, mtime); a modified file
// produces a new fingerprint and is validated again.
package checkpoint

import (
	"context"
	"sync"
	"time"
)

// Entry records one completed input.
type Entry struct {
	Fingerprint string    `json:"fingerprint"`
	Source      string    `json:"source"`
	RunID       string    `json:"runId"`
	Rows        int64     `json:"rows"`
	CompletedAt time.Time `json:"completedAt"`
}

// Store persists completion entries across runs.
type Store interface {
	// Seen reports whether the fingerprint was completed by a prior run.
	Seen(ctx context.Context, fingerprint string) (bool, error)
	// Mark records a completed input.
	Mark(ctx context.Context, e Entry) error
	// Close releases backend resources.
	Close() error
}

// MemoryStore keeps entries in process memory. Useful for tests and for
// watch mode, where a single process revisits the same files.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Seen(ctx context.Context, fingerprint string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[fingerprint]
	return ok, nil
}

func (s *MemoryStore) Mark(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.Fingerprint] = e
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// Len reports the number of recorded entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
