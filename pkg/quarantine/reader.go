package quarantine

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/logsieve/logsieve/internal/model"
)

// Reader streams entries back out of a quarantine file, reconstructing
// each original record with its field order intact. Used by requeue to
// re-process corrected rows.
type Reader struct {
	file *os.File
	br   *bufio.Reader
	row  int64
}

// NewReader opens a quarantine file.
func NewReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{file: file, br: bufio.NewReader(file)}, nil
}

// Read returns the next entry, or io.EOF.
func (r *Reader) Read() (*model.BadRowEntry, error) {
	for {
		line, err := r.br.ReadBytes('\n')
		if len(line) == 0 && err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, err
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			if err == io.EOF {
				return nil, io.EOF
			}
			continue
		}

		entry, derr := decodeEntry(line)
		if derr != nil {
			return nil, fmt.Errorf("quarantine: malformed entry: %w", derr)
		}
		r.row++
		if entry.Record.Row == 0 {
			entry.Record.Row = r.row
		}
		return entry, nil
	}
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// decodeEntry token-walks one flat entry object, keeping record field
// order and splitting out the reserved keys.
func decodeEntry(line []byte) (*model.BadRowEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(line))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object")
	}

	entry := &model.BadRowEntry{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key := keyTok.(string)

		switch key {
		case "_source":
			var s string
			if err := dec.Decode(&s); err != nil {
				return nil, err
			}
			entry.Record.Source = s
		case "_row":
			var n int64
			if err := dec.Decode(&n); err != nil {
				return nil, err
			}
			entry.Record.Row = n
		case issuesKey:
			if err := dec.Decode(&entry.Issues); err != nil {
				return nil, err
			}
		default:
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return nil, err
			}
			f := model.Field{Name: key}
			raw = bytes.TrimSpace(raw)
			if bytes.Equal(raw, []byte("null")) {
				f.Null = true
			} else if len(raw) > 0 && raw[0] == '"' {
				json.Unmarshal(raw, &f.Value)
			} else {
				f.Value = string(raw)
			}
			entry.Record.Fields = append(entry.Record.Fields, f)
		}
	}

	return entry, nil
}
