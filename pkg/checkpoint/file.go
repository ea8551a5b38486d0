package checkpoint

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	sieveerr "github.com/logsieve/logsieve/pkg/errors"
)

// FileStore appends entries to a JSONL ledger on disk. The whole ledger
// is loaded at open; Mark appends one line and fsyncs, so a crashed run
// loses at most the entry being written.
type FileStore struct {
	mu    sync.Mutex
	path  string
	file  *os.File
	seen  map[string]struct{}
	enc   *json.Encoder
	close bool
}

// NewFileStore opens (or creates) the ledger at path.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, sieveerr.Wrap(err, sieveerr.CodeWriteFailed, "cannot create checkpoint dir")
	}

	seen := make(map[string]struct{})
	if existing, err := os.Open(path); err == nil {
		sc := bufio.NewScanner(existing)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			var e Entry
			if json.Unmarshal(sc.Bytes(), &e) == nil && e.Fingerprint != "" {
				seen[e.Fingerprint] = struct{}{}
			}
			// Torn trailing lines from a crashed run are skipped.
		}
		existing.Close()
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, sieveerr.Wrap(err, sieveerr.CodeWriteFailed, "cannot open checkpoint ledger")
	}

	return &FileStore{
		path: path,
		file: f,
		seen: seen,
		enc:  json.NewEncoder(f),
	}, nil
}

func (s *FileStore) Seen(ctx context.Context, fingerprint string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[fingerprint]
	return ok, nil
}

func (s *FileStore) Mark(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.close {
		return sieveerr.New(sieveerr.CodeSinkClosed, "checkpoint store closed")
	}
	if _, ok := s.seen[e.Fingerprint]; ok {
		return nil
	}
	if err := s.enc.Encode(e); err != nil {
		return sieveerr.Wrap(err, sieveerr.CodeWriteFailed, "cannot append checkpoint entry")
	}
	if err := s.file.Sync(); err != nil {
		return sieveerr.Wrap(err, sieveerr.CodeWriteFailed, "cannot sync checkpoint ledger")
	}
	s.seen[e.Fingerprint] = struct{}{}
	return nil
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.close {
		return nil
	}
	s.close = true
	return s.file.Close()
}

// Path returns the ledger location.
func (s *FileStore) Path() string { return s.path }
