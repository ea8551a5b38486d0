package loader

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/logsieve/logsieve/internal/model"
)

// CSVReader implements byte-level CSV decoding tolerant of ragged rows.
// The header row defines field names; a data row with fewer columns
// yields a record with only the fields present, and surplus columns get
// synthesized names so downstream validation flags them.
type CSVReader struct {
	cfg Config
}

// NewCSVReader creates a CSV reader.
func NewCSVReader(cfg Config) *CSVReader {
	return &CSVReader{cfg: cfg}
}

// Read implements the Reader interface.
func (p *CSVReader) Read(ctx context.Context, r io.Reader, source string, out chan<- model.RawRecord) error {
	reader := bufio.NewReaderSize(r, p.cfg.BufferSize)

	headerLine, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return err
	}
	headerLine = trimLineEnding(headerLine)
	if len(headerLine) == 0 {
		return ErrEmptyInput
	}

	header := p.parseLine(headerLine)
	columns := make([]string, len(header))
	for i, col := range header {
		columns[i] = string(col)
	}

	var row int64
	for {
		select {
		case <-ctx.Done():
			return ErrContextCanceled
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return err
		}
		if len(line) == 0 && err == io.EOF {
			break
		}

		line = trimLineEnding(line)
		if len(line) == 0 {
			if err == io.EOF {
				break
			}
			continue
		}

		row++
		fields := p.parseLine(line)

		rec := model.RawRecord{
			Fields: make([]model.Field, 0, len(fields)),
			Source: source,
			Row:    row,
		}
		for i, value := range fields {
			name := ""
			if i < len(columns) {
				name = columns[i]
			} else {
				// Ragged row with surplus columns: synthesize a name so
				// validation reports it instead of the loader dropping it.
				name = fmt.Sprintf("column_%d", i+1)
			}
			rec.Fields = append(rec.Fields, model.Field{Name: name, Value: string(value)})
		}

		select {
		case out <- rec:
		case <-ctx.Done():
			return ErrContextCanceled
		}

		if err == io.EOF {
			break
		}
	}

	return nil
}

// parseLine parses a CSV line using byte-level scanning. Handles quoted
// fields with embedded delimiters and escaped quotes.
func (p *CSVReader) parseLine(line []byte) [][]byte {
	if len(line) == 0 {
		return nil
	}

	fields := make([][]byte, 0, 16)
	delim := p.cfg.Delimiter
	start := 0
	inQuotes := false

	for i := 0; i < len(line); i++ {
		c := line[i]

		if c == '"' {
			if !inQuotes {
				inQuotes = true
			} else {
				if i+1 < len(line) && line[i+1] == '"' {
					i++ // escaped quote
				} else {
					inQuotes = false
				}
			}
		} else if c == delim && !inQuotes {
			fields = append(fields, unquoteField(line[start:i]))
			start = i + 1
		}
	}
	fields = append(fields, unquoteField(line[start:]))

	return fields
}

// unquoteField removes surrounding quotes and unescapes embedded quotes.
func unquoteField(field []byte) []byte {
	if len(field) < 2 {
		return field
	}
	if field[0] == '"' && field[len(field)-1] == '"' {
		field = field[1 : len(field)-1]
		result := make([]byte, 0, len(field))
		for i := 0; i < len(field); i++ {
			if field[i] == '"' && i+1 < len(field) && field[i+1] == '"' {
				result = append(result, '"')
				i++
			} else {
				result = append(result, field[i])
			}
		}
		return result
	}
	return field
}

// trimLineEnding removes trailing \n and \r characters.
func trimLineEnding(line []byte) []byte {
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line
}
