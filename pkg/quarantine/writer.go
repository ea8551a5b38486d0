// Package quarantine persists bad rows for inspection and
// re-processing. Entries keep the original field values byte-for-byte
// — no coercion, no truncation — plus the issue list, so a corrected
// file re-enters the pipeline and reproduces the same issue set for
// anything left uncorrected.
package quarantine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/logsieve/logsieve/internal/model"
)

// entryMeta is the reserved key carrying provenance and issues inside
// each JSONL entry. Record fields never collide with it in practice;
// a record field of the same name would itself be flagged unexpected.
const issuesKey = "issues"

// Writer appends bad rows to a JSONL file. Safe for concurrent use,
// though the pipeline writes from the single merged stream.
type Writer struct {
	mu sync.Mutex

	path    string
	file    *os.File
	buf     bytes.Buffer
	runID   string
	count   int64
	started time.Time
	closed  bool
}

// NewWriter creates a quarantine writer at path.
func NewWriter(path, runID string) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("quarantine: create %s: %w", path, err)
	}
	return &Writer{
		path:    path,
		file:    file,
		runID:   runID,
		started: time.Now(),
	}, nil
}

// Write appends one bad row. Fields are serialized in their original
// order with values untouched; the issues list follows in its
// deterministic order.
func (w *Writer) Write(entry *model.BadRowEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("quarantine: writer closed")
	}

	w.buf.Reset()
	if err := encodeEntry(&w.buf, entry); err != nil {
		return err
	}
	w.buf.WriteByte('\n')

	if _, err := w.file.Write(w.buf.Bytes()); err != nil {
		return fmt.Errorf("quarantine: write: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of quarantined rows.
func (w *Writer) Count() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Path returns the output path.
func (w *Writer) Path() string { return w.path }

// Flush syncs buffered data to disk.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file != nil {
		return w.file.Sync()
	}
	return nil
}

// Close closes the writer. Idempotent.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// encodeEntry writes one entry as a flat JSON object: the original
// fields in input order, then provenance and issues under reserved
// keys. Manual assembly keeps field order, which encoding/json maps
// would destroy.
func encodeEntry(buf *bytes.Buffer, entry *model.BadRowEntry) error {
	buf.WriteByte('{')

	for i, f := range entry.Record.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(buf, f.Name); err != nil {
			return err
		}
		buf.WriteByte(':')
		if f.Null {
			buf.WriteString("null")
		} else if err := writeJSONString(buf, f.Value); err != nil {
			return err
		}
	}

	if len(entry.Record.Fields) > 0 {
		buf.WriteByte(',')
	}

	buf.WriteString(`"_source":`)
	writeJSONString(buf, entry.Record.Source)
	fmt.Fprintf(buf, `,"_row":%d,`, entry.Record.Row)

	writeJSONString(buf, issuesKey)
	buf.WriteByte(':')
	issues, err := json.Marshal(entry.Issues)
	if err != nil {
		return err
	}
	buf.Write(issues)

	buf.WriteByte('}')
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
