package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/logsieve/logsieve/internal/model"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Pipeline.Workers <= 0 {
		t.Errorf("Workers = %d, want > 0", cfg.Pipeline.Workers)
	}
	if cfg.Output.CleanPath != "clean.csv" {
		t.Errorf("CleanPath = %q, want clean.csv", cfg.Output.CleanPath)
	}
	if cfg.Timestamp.Field != "timestamp" {
		t.Errorf("Timestamp.Field = %q, want timestamp", cfg.Timestamp.Field)
	}
	if got := cfg.Timestamp.ToleranceDuration(); got != 24*time.Hour {
		t.Errorf("ToleranceDuration() = %v, want 24h", got)
	}
	if cfg.Checkpoint.Backend != "none" {
		t.Errorf("Checkpoint.Backend = %q, want none", cfg.Checkpoint.Backend)
	}
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
version: 1
pipeline:
  workers: 3
timestamp:
  prefer: dd/mm/yyyy
  tolerance: 48h
`)

	m := NewManager()
	if err := m.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	cfg := m.Get()

	if cfg.Pipeline.Workers != 3 {
		t.Errorf("Workers = %d, want 3", cfg.Pipeline.Workers)
	}
	if cfg.Timestamp.Prefer != "dd/mm/yyyy" {
		t.Errorf("Prefer = %q, want dd/mm/yyyy", cfg.Timestamp.Prefer)
	}
	if got := cfg.Timestamp.ToleranceDuration(); got != 48*time.Hour {
		t.Errorf("ToleranceDuration() = %v, want 48h", got)
	}
	// Untouched sections keep their defaults.
	if cfg.Output.CleanPath != "clean.csv" {
		t.Errorf("CleanPath = %q, want default clean.csv", cfg.Output.CleanPath)
	}
	if cfg.Pipeline.BufferSize != 1024 {
		t.Errorf("BufferSize = %d, want default 1024", cfg.Pipeline.BufferSize)
	}
}

func TestLoadFileLayering(t *testing.T) {
	base := writeConfig(t, `
pipeline:
  workers: 2
output:
  clean: base.csv
`)
	override := writeConfig(t, `
output:
  clean: override.csv
`)

	m := NewManager()
	if err := m.LoadFile(base); err != nil {
		t.Fatalf("LoadFile(base): %v", err)
	}
	if err := m.LoadFile(override); err != nil {
		t.Fatalf("LoadFile(override): %v", err)
	}
	cfg := m.Get()

	if cfg.Output.CleanPath != "override.csv" {
		t.Errorf("CleanPath = %q, want override.csv", cfg.Output.CleanPath)
	}
	if cfg.Pipeline.Workers != 2 {
		t.Errorf("Workers = %d, want 2 from the base layer", cfg.Pipeline.Workers)
	}
	if len(m.Paths()) != 2 {
		t.Errorf("Paths() = %v, want both layers", m.Paths())
	}
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"top-level typo", "worckers: 4\n"},
		{"nested typo", "pipeline:\n  worker_count: 4\n"},
		{"bad backend", "checkpoint:\n  backend: postgres\n"},
		{"bad log level", "logging:\n  level: loud\n"},
		{"wrong type", "pipeline:\n  workers: lots\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if err := NewManager().LoadFile(path); err == nil {
				t.Errorf("LoadFile(%s) error = nil, want schema violation", tt.name)
			}
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	err := NewManager().LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("LoadFile(missing) error = nil, want error")
	}
}

func TestDurationAccessorsFallBack(t *testing.T) {
	p := PipelineConfig{OpenTimeout: "garbage"}
	if got := p.OpenTimeoutDuration(); got != 10*time.Second {
		t.Errorf("OpenTimeoutDuration(garbage) = %v, want 10s default", got)
	}
	tc := TimestampConfig{}
	if got := tc.ToleranceDuration(); got != 24*time.Hour {
		t.Errorf("ToleranceDuration(empty) = %v, want 24h default", got)
	}
}

func TestFloorTime(t *testing.T) {
	tc := TimestampConfig{Floor: "2020-01-01T00:00:00Z"}
	got, err := tc.FloorTime()
	if err != nil {
		t.Fatalf("FloorTime: %v", err)
	}
	want := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("FloorTime() = %v, want %v", got, want)
	}

	if _, err := (TimestampConfig{Floor: "last tuesday"}).FloorTime(); err == nil {
		t.Error("FloorTime(bad) error = nil, want error")
	}

	got, err = (TimestampConfig{}).FloorTime()
	if err != nil || !got.IsZero() {
		t.Errorf("FloorTime(empty) = %v, %v, want zero, nil", got, err)
	}
}

func TestLoadFieldSpecDefault(t *testing.T) {
	spec, err := LoadFieldSpec("")
	if err != nil {
		t.Fatalf("LoadFieldSpec(\"\"): %v", err)
	}
	if spec.TimestampField() != "timestamp" {
		t.Errorf("TimestampField() = %q, want timestamp", spec.TimestampField())
	}
}

func TestLoadFieldSpecFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spec.yaml")
	content := `
fields:
  - name: when
    required: true
    type: timestamp
  - name: actor
    required: true
    type: string
    min_length: 1
    max_length: 64
  - name: verdict
    type: enum
    values: [allow, deny]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	spec, err := LoadFieldSpec(path)
	if err != nil {
		t.Fatalf("LoadFieldSpec: %v", err)
	}

	fields := spec.Fields()
	if len(fields) != 3 {
		t.Fatalf("got %d fields, want 3", len(fields))
	}
	if fields[0].Name != "when" || fields[0].Type != model.TypeTimestamp || !fields[0].Required {
		t.Errorf("fields[0] = %+v", fields[0])
	}
	if fields[1].MaxLen != 64 {
		t.Errorf("actor MaxLen = %d, want 64", fields[1].MaxLen)
	}
	if len(fields[2].Enum) != 2 {
		t.Errorf("verdict enum = %v, want [allow deny]", fields[2].Enum)
	}
	if spec.TimestampField() != "when" {
		t.Errorf("TimestampField() = %q, want when", spec.TimestampField())
	}
}

func TestLoadFieldSpecUnknownType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spec.yaml")
	if err := os.WriteFile(path, []byte("fields:\n  - name: x\n    type: blob\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFieldSpec(path); err == nil {
		t.Error("LoadFieldSpec(unknown type) error = nil, want error")
	}
}

func TestBuildTimestampValidator(t *testing.T) {
	tv, err := BuildTimestampValidator(TimestampConfig{})
	if err != nil {
		t.Fatalf("BuildTimestampValidator(empty): %v", err)
	}
	if tv.Field() != "timestamp" {
		t.Errorf("Field() = %q, want timestamp", tv.Field())
	}
	if !tv.CanParse("2024-03-01T10:00:00Z") {
		t.Error("default formats reject iso8601")
	}

	tv, err = BuildTimestampValidator(TimestampConfig{
		Field:   "event_time",
		Formats: []string{"dd/mm/yyyy"},
	})
	if err != nil {
		t.Fatalf("BuildTimestampValidator(custom): %v", err)
	}
	if tv.Field() != "event_time" {
		t.Errorf("Field() = %q, want event_time", tv.Field())
	}
	if tv.CanParse("2024-03-01T10:00:00Z") {
		t.Error("custom format list still accepts iso8601")
	}
	if !tv.CanParse("13/04/2024") {
		t.Error("custom format list rejects dd/mm/yyyy")
	}

	if _, err := BuildTimestampValidator(TimestampConfig{Prefer: "bogus"}); err == nil {
		t.Error("BuildTimestampValidator(bad prefer) error = nil, want error")
	}
	if _, err := BuildTimestampValidator(TimestampConfig{Formats: []string{"nope"}}); err == nil {
		t.Error("BuildTimestampValidator(bad format) error = nil, want error")
	}
}
