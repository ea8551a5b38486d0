package loader

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/logsieve/logsieve/internal/model"
)

// XLSXReader decodes Excel workbooks. Security appliances commonly
// export audit logs as xlsx; only the first sheet is read, with the
// first row as the header.
type XLSXReader struct {
	cfg Config
}

// NewXLSXReader creates an XLSX reader.
func NewXLSXReader(cfg Config) *XLSXReader {
	return &XLSXReader{cfg: cfg}
}

// Read implements the Reader interface.
func (p *XLSXReader) Read(ctx context.Context, r io.Reader, source string, out chan<- model.RawRecord) error {
	xl, err := excelize.OpenReader(r)
	if err != nil {
		return fmt.Errorf("loader: open xlsx: %w", err)
	}
	defer xl.Close()

	sheet := xl.GetSheetName(0)
	if sheet == "" {
		sheets := xl.GetSheetList()
		if len(sheets) == 0 {
			return ErrEmptyInput
		}
		sheet = sheets[0]
	}

	rows, err := xl.Rows(sheet)
	if err != nil {
		return fmt.Errorf("loader: read xlsx rows: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return ErrEmptyInput
	}
	header, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("loader: read xlsx header: %w", err)
	}

	var row int64
	for rows.Next() {
		select {
		case <-ctx.Done():
			return ErrContextCanceled
		default:
		}

		cells, err := rows.Columns()
		if err != nil {
			// A broken row still becomes a record; validation reports
			// the missing fields.
			cells = nil
		}

		row++
		rec := model.RawRecord{
			Fields: make([]model.Field, 0, len(cells)),
			Source: source,
			Row:    row,
		}
		for i, value := range cells {
			name := ""
			if i < len(header) {
				name = header[i]
			} else {
				name = fmt.Sprintf("column_%d", i+1)
			}
			rec.Fields = append(rec.Fields, model.Field{Name: name, Value: value})
		}

		select {
		case out <- rec:
		case <-ctx.Done():
			return ErrContextCanceled
		}
	}

	return nil
}
