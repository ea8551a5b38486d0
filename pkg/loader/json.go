package loader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/logsieve/logsieve/internal/model"
)

// JSONReader decodes either a single top-level array of objects or
// line-delimited objects. Field order within each object is preserved
// by walking tokens instead of unmarshaling into maps. A truncated
// object yields a record with exactly the fields parsed before the
// break, so the omission surfaces in validation.
type JSONReader struct {
	cfg Config
}

// NewJSONReader creates a JSON/JSONL reader.
func NewJSONReader(cfg Config) *JSONReader {
	return &JSONReader{cfg: cfg}
}

// Read implements the Reader interface.
func (p *JSONReader) Read(ctx context.Context, r io.Reader, source string, out chan<- model.RawRecord) error {
	br := bufio.NewReaderSize(r, p.cfg.BufferSize)

	// Peek at the first non-space byte to distinguish array documents
	// from line-delimited streams.
	first, err := peekFirstByte(br)
	if err != nil {
		return ErrEmptyInput
	}

	if first == '[' {
		return p.readArray(ctx, br, source, out)
	}
	return p.readLines(ctx, br, source, out)
}

func peekFirstByte(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.Peek(1)
		if err != nil {
			return 0, err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			br.Discard(1)
		default:
			return b[0], nil
		}
	}
}

// readArray decodes a top-level JSON array of objects.
func (p *JSONReader) readArray(ctx context.Context, r io.Reader, source string, out chan<- model.RawRecord) error {
	dec := json.NewDecoder(r)

	// Opening bracket.
	if _, err := dec.Token(); err != nil {
		return ErrMalformedInput
	}

	var row int64
	for dec.More() {
		select {
		case <-ctx.Done():
			return ErrContextCanceled
		default:
		}

		row++
		fields, err := decodeObjectFields(dec)
		rec := model.RawRecord{Fields: fields, Source: source, Row: row}

		if err != nil {
			// A broken element loses decoder sync for the rest of the
			// array. Emit what was parsed, then stop; the file itself
			// failed only if nothing at all was recovered.
			if len(fields) == 0 && row == 1 {
				return ErrMalformedInput
			}
			select {
			case out <- rec:
			case <-ctx.Done():
				return ErrContextCanceled
			}
			return nil
		}

		select {
		case out <- rec:
		case <-ctx.Done():
			return ErrContextCanceled
		}
	}

	return nil
}

// readLines decodes newline-delimited objects with per-line recovery.
func (p *JSONReader) readLines(ctx context.Context, br *bufio.Reader, source string, out chan<- model.RawRecord) error {
	var row int64
	var emitted int64

	for {
		select {
		case <-ctx.Done():
			return ErrContextCanceled
		default:
		}

		line, err := br.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return err
		}
		if len(line) == 0 && err == io.EOF {
			break
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			if err == io.EOF {
				break
			}
			continue
		}

		row++
		dec := json.NewDecoder(bytes.NewReader(line))
		fields, _ := decodeObjectFields(dec)

		// Even a fully unparseable line becomes an empty record:
		// validation will report every required field as missing.
		rec := model.RawRecord{Fields: fields, Source: source, Row: row}
		emitted++

		select {
		case out <- rec:
		case <-ctx.Done():
			return ErrContextCanceled
		}

		if err == io.EOF {
			break
		}
	}

	if emitted == 0 {
		return ErrEmptyInput
	}
	return nil
}

// decodeObjectFields walks one JSON object's tokens, preserving key
// order. On error it returns the fields collected so far.
func decodeObjectFields(dec *json.Decoder) ([]model.Field, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("loader: expected object, got %v", tok)
	}

	var fields []model.Field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fields, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fields, fmt.Errorf("loader: non-string key %v", keyTok)
		}

		value, null, err := decodeScalar(dec)
		if err != nil {
			return fields, err
		}
		fields = append(fields, model.Field{Name: key, Value: value, Null: null})
	}

	// Closing brace.
	if _, err := dec.Token(); err != nil {
		return fields, err
	}
	return fields, nil
}

// decodeScalar renders one JSON value as raw text. Nested composites
// keep their compact JSON text so the raw content is never lost.
func decodeScalar(dec *json.Decoder) (string, bool, error) {
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return "", false, err
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", true, nil
	}

	// Strings are unquoted; everything else (numbers, booleans, nested
	// objects and arrays) stays as its JSON text.
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return string(raw), false, nil
		}
		return s, false, nil
	}
	return string(raw), false, nil
}
