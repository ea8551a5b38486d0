// Package profile computes column statistics over a clean output file.
//
// Key capabilities:
// - Per-column null, distinct, and entropy metrics
// - Value distribution for low-cardinality columns
// - Timestamp span of the validated window
//
// The clean CSV is loaded through DuckDB; nothing here touches the
// validation path, so profiling a terabyte of output cannot change a
// run's partitioning.
package profile

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	sieveerr "github.com/logsieve/logsieve/pkg/errors"
	"github.com/logsieve/logsieve/pkg/sinks"
)

// ColumnProfile holds metrics for a single column.
type ColumnProfile struct {
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	RowCount       int64   `json:"rowCount"`
	NullCount      int64   `json:"nullCount"`
	DistinctCount  int64   `json:"distinctCount"`
	Entropy        float64 `json:"entropy"`
	NullPct        float64 `json:"nullPct"`
	CardinalityPct float64 `json:"cardinalityPct"`

	// TopValues is populated for columns with at most maxTopValues
	// distinct values, such as action enums.
	TopValues []ValueCount `json:"topValues,omitempty"`
}

// ValueCount is one value's frequency.
type ValueCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// DatasetProfile describes a whole clean output file.
type DatasetProfile struct {
	Path        string          `json:"path"`
	RowCount    int64           `json:"rowCount"`
	ColumnCount int             `json:"columnCount"`
	Columns     []ColumnProfile `json:"columns"`
	// Window is the [min, max] of the normalized timestamp column.
	WindowMin   string        `json:"windowMin,omitempty"`
	WindowMax   string        `json:"windowMax,omitempty"`
	ComputeTime time.Duration `json:"computeTime"`
}

const maxTopValues = 16

// Profiler analyzes clean output files with an embedded DuckDB.
type Profiler struct {
	db *sql.DB
}

// NewProfiler opens an in-memory DuckDB instance.
func NewProfiler() (*Profiler, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, sieveerr.Wrap(err, sieveerr.CodeUnknown, "cannot open duckdb")
	}
	return &Profiler{db: db}, nil
}

// Close releases the database.
func (p *Profiler) Close() error {
	return p.db.Close()
}

// Analyze profiles a clean CSV file produced by a validation run.
func (p *Profiler) Analyze(ctx context.Context, path string) (*DatasetProfile, error) {
	start := time.Now()
	prof := &DatasetProfile{Path: path}

	source := fmt.Sprintf("read_csv_auto('%s', header=true, all_varchar=true)", escapePath(path))

	if err := p.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+source).Scan(&prof.RowCount); err != nil {
		return nil, sieveerr.Wrap(err, sieveerr.CodeUndecodable, "row count failed for "+path)
	}

	columns, err := p.describe(ctx, source)
	if err != nil {
		return nil, err
	}
	prof.ColumnCount = len(columns)

	for _, col := range columns {
		cp, err := p.analyzeColumn(ctx, source, col)
		if err != nil {
			// A single bad column should not sink the whole profile.
			continue
		}
		prof.Columns = append(prof.Columns, *cp)
	}

	p.analyzeWindow(ctx, source, columns, prof)
	prof.ComputeTime = time.Since(start)
	return prof, nil
}

type columnInfo struct {
	name  string
	dtype string
}

func (p *Profiler) describe(ctx context.Context, source string) ([]columnInfo, error) {
	rows, err := p.db.QueryContext(ctx, "DESCRIBE SELECT * FROM "+source)
	if err != nil {
		return nil, sieveerr.Wrap(err, sieveerr.CodeUndecodable, "describe failed")
	}
	defer rows.Close()

	var cols []columnInfo
	for rows.Next() {
		var name, dtype string
		var null, key, dflt, extra interface{}
		if err := rows.Scan(&name, &dtype, &null, &key, &dflt, &extra); err != nil {
			return nil, sieveerr.Wrap(err, sieveerr.CodeUndecodable, "describe scan failed")
		}
		cols = append(cols, columnInfo{name: name, dtype: dtype})
	}
	return cols, rows.Err()
}

func (p *Profiler) analyzeColumn(ctx context.Context, source string, col columnInfo) (*ColumnProfile, error) {
	cp := &ColumnProfile{Name: col.name, Type: col.dtype}

	query := fmt.Sprintf(`
		SELECT
			COUNT(*) AS total,
			COUNT(*) - COUNT(%[1]s) AS nulls,
			COUNT(DISTINCT %[1]s) AS distinct_count,
			COALESCE(entropy(%[1]s::VARCHAR), 0) AS entropy
		FROM %[2]s
	`, quoteIdent(col.name), source)

	if err := p.db.QueryRowContext(ctx, query).Scan(
		&cp.RowCount, &cp.NullCount, &cp.DistinctCount, &cp.Entropy); err != nil {
		return nil, err
	}

	if cp.RowCount > 0 {
		cp.NullPct = float64(cp.NullCount) / float64(cp.RowCount) * 100
		cp.CardinalityPct = float64(cp.DistinctCount) / float64(cp.RowCount) * 100
	}

	if cp.DistinctCount > 0 && cp.DistinctCount <= maxTopValues {
		cp.TopValues, _ = p.topValues(ctx, source, col.name)
	}
	return cp, nil
}

func (p *Profiler) topValues(ctx context.Context, source, column string) ([]ValueCount, error) {
	query := fmt.Sprintf(`
		SELECT %[1]s::VARCHAR, COUNT(*)
		FROM %[2]s
		WHERE %[1]s IS NOT NULL
		GROUP BY 1
		ORDER BY 2 DESC, 1
		LIMIT %[3]d
	`, quoteIdent(column), source, maxTopValues)

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ValueCount
	for rows.Next() {
		var vc ValueCount
		if err := rows.Scan(&vc.Value, &vc.Count); err != nil {
			return nil, err
		}
		out = append(out, vc)
	}
	return out, rows.Err()
}

// analyzeWindow fills the timestamp window when the normalized column
// is present. Best effort.
func (p *Profiler) analyzeWindow(ctx context.Context, source string, columns []columnInfo, prof *DatasetProfile) {
	found := false
	for _, c := range columns {
		if c.name == sinks.NormalizedColumn {
			found = true
			break
		}
	}
	if !found {
		return
	}

	query := fmt.Sprintf(`SELECT MIN(%[1]s)::VARCHAR, MAX(%[1]s)::VARCHAR FROM %[2]s`,
		quoteIdent(sinks.NormalizedColumn), source)
	var min, max sql.NullString
	if err := p.db.QueryRowContext(ctx, query).Scan(&min, &max); err != nil {
		return
	}
	prof.WindowMin = min.String
	prof.WindowMax = max.String
}

func escapePath(path string) string {
	return strings.ReplaceAll(path, "'", "''")
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
