// Package loader turns files and streams into ordered sequences of raw
// records. Decoding is best-effort: a malformed row is emitted with the
// fields that could be parsed so that validation reports the omission,
// and a failure on one file never prevents processing of the others.
package loader

import (
	"context"
	"errors"
	"io"

	"github.com/logsieve/logsieve/internal/model"
)

// Format represents a supported input format.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatTSV
	FormatJSON
	FormatJSONL
	FormatXLSX
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatTSV:
		return "tsv"
	case FormatJSON:
		return "json"
	case FormatJSONL:
		return "jsonl"
	case FormatXLSX:
		return "xlsx"
	default:
		return "unknown"
	}
}

// Reader decodes one source into raw records. Implementations must be
// safe for concurrent use and must respect context cancellation. The
// caller owns the out channel and closes it.
type Reader interface {
	// Read decodes r, emitting records tagged with source and a 1-based
	// row index. A returned error means the file itself was unusable
	// (malformed container, undecodable); per-row problems are never
	// errors here.
	Read(ctx context.Context, r io.Reader, source string, out chan<- model.RawRecord) error
}

// Config holds common reader configuration.
type Config struct {
	// BufferSize is the read buffer size in bytes.
	BufferSize int

	// Delimiter is the CSV field delimiter.
	Delimiter byte
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize: 256 * 1024,
		Delimiter:  ',',
	}
}

// NewReader creates a reader for the given format.
func NewReader(format Format, cfg Config) (Reader, error) {
	switch format {
	case FormatCSV:
		return NewCSVReader(cfg), nil
	case FormatTSV:
		tsv := cfg
		tsv.Delimiter = '\t'
		return NewCSVReader(tsv), nil
	case FormatJSON, FormatJSONL:
		return NewJSONReader(cfg), nil
	case FormatXLSX:
		return NewXLSXReader(cfg), nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

// Reader errors.
var (
	ErrUnsupportedFormat = errors.New("loader: unsupported format")
	ErrEmptyInput        = errors.New("loader: empty input")
	ErrMalformedInput    = errors.New("loader: malformed container")
	ErrContextCanceled   = errors.New("loader: context canceled")
)
