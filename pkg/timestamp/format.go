// Package timestamp parses and validates record timestamps against an
// ordered list of candidate formats. Values matching more than one
// candidate with differing instants are reported as ambiguous rather
// than silently resolved; a silent pick would corrupt downstream
// time-ordering with no recourse.
package timestamp

import (
	"strconv"
	"strings"
	"time"

	sieveerrors "github.com/logsieve/logsieve/pkg/errors"
)

// FormatKind distinguishes layout-based formats from numeric epochs.
type FormatKind uint8

const (
	KindLayout FormatKind = iota
	KindEpochSeconds
	KindEpochMillis
)

// Format is one timestamp format candidate.
type Format struct {
	// Name is the identifier used in configuration and in ambiguity
	// reports.
	Name string

	// Layout is the Go reference layout. Empty for epoch kinds.
	Layout string

	Kind FormatKind
}

// Named formats accepted in configuration. Order here is irrelevant;
// the configured candidate order decides attempt order.
var namedFormats = map[string]Format{
	"iso8601":      {Name: "iso8601", Layout: time.RFC3339},
	"iso8601-nano": {Name: "iso8601-nano", Layout: time.RFC3339Nano},
	"datetime":     {Name: "datetime", Layout: "2006-01-02 15:04:05"},
	"datetime-us":  {Name: "datetime-us", Layout: "2006-01-02 15:04:05.000000"},
	"date":         {Name: "date", Layout: "2006-01-02"},
	"mm/dd/yyyy":   {Name: "mm/dd/yyyy", Layout: "01/02/2006"},
	"dd/mm/yyyy":   {Name: "dd/mm/yyyy", Layout: "02/01/2006"},
	"mm/dd/yyyy hh:mm:ss": {Name: "mm/dd/yyyy hh:mm:ss", Layout: "01/02/2006 15:04:05"},
	"dd/mm/yyyy hh:mm:ss": {Name: "dd/mm/yyyy hh:mm:ss", Layout: "02/01/2006 15:04:05"},
	"epoch":        {Name: "epoch", Kind: KindEpochSeconds},
	"epoch-millis": {Name: "epoch-millis", Kind: KindEpochMillis},
}

// LookupFormat resolves a configured candidate name. Unknown names that
// look like a Go reference layout (contain the reference year) are
// accepted as literal layouts; anything else is a configuration error.
func LookupFormat(name string) (Format, error) {
	if f, ok := namedFormats[strings.ToLower(name)]; ok {
		return f, nil
	}
	if strings.Contains(name, "2006") {
		return Format{Name: name, Layout: name}, nil
	}
	return Format{}, sieveerrors.ConfigInvalid("unknown timestamp format: " + name)
}

// ParseFormats resolves an ordered candidate list. An empty list is a
// configuration error: without candidates no record could ever be clean.
func ParseFormats(names []string) ([]Format, error) {
	if len(names) == 0 {
		return nil, sieveerrors.ConfigInvalid("timestamp format candidate list is empty")
	}
	out := make([]Format, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		f, err := LookupFormat(n)
		if err != nil {
			return nil, err
		}
		if seen[f.Name] {
			return nil, sieveerrors.ConfigInvalid("duplicate timestamp format: " + f.Name)
		}
		seen[f.Name] = true
		out = append(out, f)
	}
	return out, nil
}

// DefaultFormats returns the candidates used when configuration names
// none explicitly.
func DefaultFormats() []Format {
	f, _ := ParseFormats([]string{"iso8601", "datetime", "datetime-us", "epoch"})
	return f
}

// tryParse attempts one candidate against a raw value. The bool reports
// whether the candidate matched.
func (f Format) tryParse(value string) (time.Time, bool) {
	switch f.Kind {
	case KindEpochSeconds:
		sec, ok := parseEpochNumber(value)
		if !ok {
			return time.Time{}, false
		}
		return time.Unix(sec, 0).UTC(), true
	case KindEpochMillis:
		ms, ok := parseEpochNumber(value)
		if !ok {
			return time.Time{}, false
		}
		return time.UnixMilli(ms).UTC(), true
	default:
		t, err := time.Parse(f.Layout, value)
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	}
}

func parseEpochNumber(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
