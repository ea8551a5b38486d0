// Package generators produces synthetic auth log data for tests and
// benchmarks. Generated files exercise the same defect classes the
// validator looks for: missing fields, bad types, ambiguous dates, and
// ragged rows.
package generators

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// AuthLogGenerator writes synthetic authentication events.
type AuthLogGenerator struct {
	faker *gofakeit.Faker
	rng   *rand.Rand

	// Start anchors the generated time window; rows advance from it.
	Start time.Time

	// Defect injection rates, each in [0, 1].
	MissingUserRate  float64 // user column empty
	BadTimestampRate float64 // unparseable timestamp text
	AmbiguousRate    float64 // day<=12 slash dates
	BadActionRate    float64 // action outside the enum
	RaggedRate       float64 // CSV rows with missing trailing cells
}

// NewAuthLogGenerator creates a deterministic generator for a seed.
func NewAuthLogGenerator(seed int64) *AuthLogGenerator {
	return &AuthLogGenerator{
		faker: gofakeit.New(seed),
		rng:   rand.New(rand.NewSource(seed)),
		Start: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

// Header is the column order WriteCSV emits.
func (g *AuthLogGenerator) Header() []string {
	return []string{"timestamp", "user", "event_id", "src_ip", "dest_host", "action"}
}

// Row produces one event's cells in Header order.
func (g *AuthLogGenerator) Row(i int) []string {
	ts := g.Start.Add(time.Duration(i) * 37 * time.Second)

	timestamp := ts.Format(time.RFC3339)
	switch {
	case g.roll(g.BadTimestampRate):
		timestamp = "not-a-time"
	case g.roll(g.AmbiguousRate):
		// Both mm/dd and dd/mm readings are valid.
		timestamp = fmt.Sprintf("%02d/%02d/%d", 1+g.rng.Intn(12), 1+g.rng.Intn(12), ts.Year())
	}

	user := g.faker.Username()
	if g.roll(g.MissingUserRate) {
		user = ""
	}

	action := []string{"success", "failure", "blocked"}[g.rng.Intn(3)]
	if g.roll(g.BadActionRate) {
		action = g.faker.Word()
	}

	return []string{
		timestamp,
		user,
		"evt-" + strconv.Itoa(100000+i),
		g.faker.IPv4Address(),
		g.faker.DomainName(),
		action,
	}
}

// WriteCSV emits n rows with a header.
func (g *AuthLogGenerator) WriteCSV(w io.Writer, n int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(g.Header()); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		row := g.Row(i)
		if g.roll(g.RaggedRate) && len(row) > 2 {
			row = row[:2+g.rng.Intn(len(row)-2)]
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSONL emits n rows as line-delimited objects in Header order.
func (g *AuthLogGenerator) WriteJSONL(w io.Writer, n int) error {
	header := g.Header()
	for i := 0; i < n; i++ {
		row := g.Row(i)
		for j, name := range header {
			sep := ","
			if j == 0 {
				sep = "{"
			}
			if _, err := fmt.Fprintf(w, "%s%q:%q", sep, name, row[j]); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "}\n"); err != nil {
			return err
		}
	}
	return nil
}

func (g *AuthLogGenerator) roll(rate float64) bool {
	return rate > 0 && g.rng.Float64() < rate
}
