package pipeline

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Metrics collects run counters. Fields are updated atomically by the
// workers and the merge stage.
type Metrics struct {
	RowsRead       atomic.Int64
	RowsClean      atomic.Int64
	RowsBad        atomic.Int64
	FilesProcessed atomic.Int64
	FilesFailed    atomic.Int64
	FilesSkipped   atomic.Int64

	startTime time.Time
	endTime   time.Time
}

func (m *Metrics) start() { m.startTime = time.Now() }
func (m *Metrics) stop()  { m.endTime = time.Now() }

// Elapsed returns the run duration so far, or the final duration once
// the run finished.
func (m *Metrics) Elapsed() time.Duration {
	if m.endTime.IsZero() {
		return time.Since(m.startTime)
	}
	return m.endTime.Sub(m.startTime)
}

// RowsPerSecond returns the processing rate.
func (m *Metrics) RowsPerSecond() float64 {
	secs := m.Elapsed().Seconds()
	if secs == 0 {
		return 0
	}
	return float64(m.RowsRead.Load()) / secs
}

// Summary returns a one-line human-readable digest.
func (m *Metrics) Summary() string {
	return fmt.Sprintf("validated %d rows in %s (%.0f rows/sec): %d clean, %d quarantined, %d files failed",
		m.RowsRead.Load(),
		m.Elapsed().Round(time.Millisecond),
		m.RowsPerSecond(),
		m.RowsClean.Load(),
		m.RowsBad.Load(),
		m.FilesFailed.Load(),
	)
}
