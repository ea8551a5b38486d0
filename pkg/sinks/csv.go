// Package sinks writes the clean partition of a validation run.
//
// Every sink emits rows in the exact order it receives them, so the
// pipeline's merge stage fully determines output ordering. Columns are
// fixed at construction from the field specification: declared fields
// in declaration order, then the normalized timestamp column.
package sinks

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/logsieve/logsieve/internal/model"
	sieveerr "github.com/logsieve/logsieve/pkg/errors"
	"github.com/logsieve/logsieve/pkg/schema"
)

// NormalizedColumn is the name of the appended UTC timestamp column.
const NormalizedColumn = "normalized_timestamp"

// CSVWriter writes clean records as CSV with a fixed header.
type CSVWriter struct {
	mu sync.Mutex

	out    io.WriteCloser
	w      *csv.Writer
	path   string
	cols   []string
	rows   int64
	closed bool
}

// NewCSVWriter creates the output file and writes the header row.
func NewCSVWriter(path string, spec *schema.Spec) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, sieveerr.Wrap(err, sieveerr.CodeWriteFailed,
			fmt.Sprintf("cannot create clean output %s", path))
	}
	w, err := NewCSVStreamWriter(f, spec)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.path = path
	return w, nil
}

// NewCSVStreamWriter writes to an arbitrary destination; the destination
// is closed by Close when it implements io.Closer.
func NewCSVStreamWriter(out io.Writer, spec *schema.Spec) (*CSVWriter, error) {
	cols := make([]string, 0, len(spec.Fields())+1)
	for _, f := range spec.Fields() {
		cols = append(cols, f.Name)
	}
	cols = append(cols, NormalizedColumn)

	wc, ok := out.(io.WriteCloser)
	if !ok {
		wc = nopCloser{out}
	}
	w := &CSVWriter{out: wc, w: csv.NewWriter(wc), cols: cols}
	if err := w.w.Write(cols); err != nil {
		return nil, sieveerr.Wrap(err, sieveerr.CodeWriteFailed, "cannot write clean header")
	}
	return w, nil
}

// Columns returns the header in output order.
func (w *CSVWriter) Columns() []string {
	cp := make([]string, len(w.cols))
	copy(cp, w.cols)
	return cp
}

// Write appends one clean record. Fields absent from the record are
// emitted as empty cells; the normalized timestamp is RFC 3339 UTC.
func (w *CSVWriter) Write(rec *model.CleanRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return sieveerr.New(sieveerr.CodeSinkClosed, "write on closed clean sink")
	}

	row := make([]string, len(w.cols))
	for i, col := range w.cols[:len(w.cols)-1] {
		if v, present, null := rec.Record.Get(col); present && !null {
			row[i] = v
		}
	}
	row[len(row)-1] = rec.Normalized.UTC().Format(time.RFC3339Nano)

	if err := w.w.Write(row); err != nil {
		return sieveerr.Wrap(err, sieveerr.CodeWriteFailed,
			fmt.Sprintf("cannot write clean row %d", w.rows+1))
	}
	w.rows++
	return nil
}

// Rows reports how many data rows were written so far.
func (w *CSVWriter) Rows() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}

// Path returns the output path, empty for stream writers.
func (w *CSVWriter) Path() string { return w.path }

// Close flushes buffered rows and closes the destination. Safe to call twice.
func (w *CSVWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	w.w.Flush()
	if err := w.w.Error(); err != nil {
		w.out.Close()
		return sieveerr.Wrap(err, sieveerr.CodeWriteFailed, "cannot flush clean output")
	}
	if err := w.out.Close(); err != nil {
		return sieveerr.Wrap(err, sieveerr.CodeWriteFailed, "cannot close clean output")
	}
	return nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
