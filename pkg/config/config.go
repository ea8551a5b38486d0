// Package config provides hierarchical configuration management.
// Priority: defaults < system < user < project < env < flags
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	sieveerr "github.com/logsieve/logsieve/pkg/errors"
)

// Config holds all logsieve configuration. Durations are strings
// ("30s", "24h") so config files stay readable; accessors parse them.
type Config struct {
	Version int `yaml:"version"`

	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Output     OutputConfig     `yaml:"output"`
	Schema     SchemaConfig     `yaml:"schema"`
	Timestamp  TimestampConfig  `yaml:"timestamp"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	S3         S3Config         `yaml:"s3"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// PipelineConfig controls parallelism and buffering.
type PipelineConfig struct {
	Workers         int    `yaml:"workers"`     // 0 = NumCPU
	BufferSize      int    `yaml:"buffer_size"` // per-file channel depth
	OpenTimeout     string `yaml:"open_timeout"`
	DownloadTimeout string `yaml:"download_timeout"`
}

// OutputConfig names the run artifacts.
type OutputConfig struct {
	CleanPath      string `yaml:"clean"`
	QuarantinePath string `yaml:"quarantine"`
	ReportPath     string `yaml:"report"`
	// ArrowPath, when set, additionally writes the clean partition as
	// an Arrow IPC stream.
	ArrowPath string `yaml:"arrow"`
}

// SchemaConfig points at the field specification.
type SchemaConfig struct {
	// SpecFile is a YAML field specification; empty means the built-in
	// authentication log spec.
	SpecFile string `yaml:"spec_file"`
}

// TimestampConfig controls timestamp parsing and range checks.
type TimestampConfig struct {
	Field   string   `yaml:"field"`
	Formats []string `yaml:"formats"` // empty = default format set
	// Prefer disambiguates values that parse under several formats.
	Prefer    string `yaml:"prefer"`
	Tolerance string `yaml:"tolerance"` // future slack, e.g. "24h"
	Floor     string `yaml:"floor"`     // RFC 3339; empty = Unix epoch
}

// CheckpointConfig selects the skip-unchanged-files backend.
type CheckpointConfig struct {
	Backend string      `yaml:"backend"` // none | file | redis
	Path    string      `yaml:"path"`    // file backend ledger
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig for the shared checkpoint backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTL      string `yaml:"ttl"`
}

// S3Config for s3:// inputs.
type S3Config struct {
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	PathStyle bool   `yaml:"path_style"`
}

// TelemetryConfig for optional tracing.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// LoggingConfig for the zerolog output.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // console | json
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Pipeline: PipelineConfig{
			Workers:         runtime.NumCPU(),
			BufferSize:      1024,
			OpenTimeout:     "10s",
			DownloadTimeout: "5m",
		},
		Output: OutputConfig{
			CleanPath:      "clean.csv",
			QuarantinePath: "quarantine.jsonl",
			ReportPath:     "report.json",
		},
		Timestamp: TimestampConfig{
			Field:     "timestamp",
			Tolerance: "24h",
		},
		Checkpoint: CheckpointConfig{
			Backend: "none",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// OpenTimeoutDuration parses the source open timeout.
func (p PipelineConfig) OpenTimeoutDuration() time.Duration { return parseDur(p.OpenTimeout, 10*time.Second) }

// DownloadTimeoutDuration parses the remote download timeout.
func (p PipelineConfig) DownloadTimeoutDuration() time.Duration {
	return parseDur(p.DownloadTimeout, 5*time.Minute)
}

// ToleranceDuration parses the future-timestamp slack.
func (t TimestampConfig) ToleranceDuration() time.Duration { return parseDur(t.Tolerance, 24*time.Hour) }

// FloorTime parses the oldest acceptable instant; zero time means the
// Unix epoch default applies.
func (t TimestampConfig) FloorTime() (time.Time, error) {
	if t.Floor == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339, t.Floor)
	if err != nil {
		return time.Time{}, sieveerr.ConfigInvalid("timestamp.floor is not RFC 3339: " + t.Floor)
	}
	return ts, nil
}

// TTLDuration parses the Redis entry expiry; zero means no expiry.
func (r RedisConfig) TTLDuration() time.Duration { return parseDur(r.TTL, 0) }

func parseDur(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// Manager handles configuration loading and merging.
type Manager struct {
	mu     sync.RWMutex
	config *Config
	paths  []string
}

// NewManager creates a new configuration manager.
func NewManager() *Manager {
	return &Manager{config: Default()}
}

// Load loads configuration from all sources in priority order.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.config = Default()
	m.paths = nil

	for _, path := range m.configPaths() {
		err := m.loadFile(path)
		switch {
		case err == nil:
			m.paths = append(m.paths, path)
		case os.IsNotExist(err):
			// Missing layers are fine.
		default:
			return err
		}
	}

	m.loadEnv()
	return nil
}

// LoadFile merges a single explicit config file on top of whatever is
// already loaded. Used for the --config flag.
func (m *Manager) LoadFile(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.loadFile(path); err != nil {
		return err
	}
	m.paths = append(m.paths, path)
	return nil
}

// configPaths returns config file paths in priority order.
func (m *Manager) configPaths() []string {
	var paths []string
	if runtime.GOOS != "windows" {
		paths = append(paths, "/etc/logsieve/config.yaml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".logsieve", "config.yaml"))
	}
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".logsieve.yaml"))
	}
	return paths
}

// loadFile validates and merges a single config file.
func (m *Manager) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := validateConfigDocument(path, data); err != nil {
		return err
	}

	var partial Config
	if err := yaml.Unmarshal(data, &partial); err != nil {
		return sieveerr.ConfigInvalid(path + ": " + err.Error())
	}
	m.merge(&partial)
	return nil
}

// merge overlays non-zero values from src.
func (m *Manager) merge(src *Config) {
	if src.Version != 0 {
		m.config.Version = src.Version
	}

	if src.Pipeline.Workers != 0 {
		m.config.Pipeline.Workers = src.Pipeline.Workers
	}
	if src.Pipeline.BufferSize != 0 {
		m.config.Pipeline.BufferSize = src.Pipeline.BufferSize
	}
	if src.Pipeline.OpenTimeout != "" {
		m.config.Pipeline.OpenTimeout = src.Pipeline.OpenTimeout
	}
	if src.Pipeline.DownloadTimeout != "" {
		m.config.Pipeline.DownloadTimeout = src.Pipeline.DownloadTimeout
	}

	if src.Output.CleanPath != "" {
		m.config.Output.CleanPath = src.Output.CleanPath
	}
	if src.Output.QuarantinePath != "" {
		m.config.Output.QuarantinePath = src.Output.QuarantinePath
	}
	if src.Output.ReportPath != "" {
		m.config.Output.ReportPath = src.Output.ReportPath
	}
	if src.Output.ArrowPath != "" {
		m.config.Output.ArrowPath = src.Output.ArrowPath
	}

	if src.Schema.SpecFile != "" {
		m.config.Schema.SpecFile = src.Schema.SpecFile
	}

	if src.Timestamp.Field != "" {
		m.config.Timestamp.Field = src.Timestamp.Field
	}
	if len(src.Timestamp.Formats) > 0 {
		m.config.Timestamp.Formats = src.Timestamp.Formats
	}
	if src.Timestamp.Prefer != "" {
		m.config.Timestamp.Prefer = src.Timestamp.Prefer
	}
	if src.Timestamp.Tolerance != "" {
		m.config.Timestamp.Tolerance = src.Timestamp.Tolerance
	}
	if src.Timestamp.Floor != "" {
		m.config.Timestamp.Floor = src.Timestamp.Floor
	}

	if src.Checkpoint.Backend != "" {
		m.config.Checkpoint.Backend = src.Checkpoint.Backend
	}
	if src.Checkpoint.Path != "" {
		m.config.Checkpoint.Path = src.Checkpoint.Path
	}
	if src.Checkpoint.Redis.Addr != "" {
		m.config.Checkpoint.Redis.Addr = src.Checkpoint.Redis.Addr
	}
	if src.Checkpoint.Redis.Password != "" {
		m.config.Checkpoint.Redis.Password = src.Checkpoint.Redis.Password
	}
	if src.Checkpoint.Redis.DB != 0 {
		m.config.Checkpoint.Redis.DB = src.Checkpoint.Redis.DB
	}
	if src.Checkpoint.Redis.TTL != "" {
		m.config.Checkpoint.Redis.TTL = src.Checkpoint.Redis.TTL
	}

	if src.S3.Region != "" {
		m.config.S3.Region = src.S3.Region
	}
	if src.S3.Endpoint != "" {
		m.config.S3.Endpoint = src.S3.Endpoint
	}
	if src.S3.AccessKey != "" {
		m.config.S3.AccessKey = src.S3.AccessKey
	}
	if src.S3.SecretKey != "" {
		m.config.S3.SecretKey = src.S3.SecretKey
	}
	if src.S3.PathStyle {
		m.config.S3.PathStyle = true
	}

	if src.Telemetry.Enabled {
		m.config.Telemetry.Enabled = true
	}
	if src.Telemetry.Endpoint != "" {
		m.config.Telemetry.Endpoint = src.Telemetry.Endpoint
	}

	if src.Logging.Level != "" {
		m.config.Logging.Level = src.Logging.Level
	}
	if src.Logging.Format != "" {
		m.config.Logging.Format = src.Logging.Format
	}
}

// loadEnv overlays LOGSIEVE_* environment variables.
func (m *Manager) loadEnv() {
	if v := os.Getenv("LOGSIEVE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			m.config.Pipeline.Workers = n
		}
	}
	if v := os.Getenv("LOGSIEVE_SPEC_FILE"); v != "" {
		m.config.Schema.SpecFile = v
	}
	if v := os.Getenv("LOGSIEVE_LOG_LEVEL"); v != "" {
		m.config.Logging.Level = v
	}
	if v := os.Getenv("LOGSIEVE_REDIS_ADDR"); v != "" {
		m.config.Checkpoint.Redis.Addr = v
	}
	if v := os.Getenv("LOGSIEVE_S3_ENDPOINT"); v != "" {
		m.config.S3.Endpoint = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" && m.config.S3.Region == "" {
		m.config.S3.Region = v
	}
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Paths returns the config files that were loaded.
func (m *Manager) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paths
}

// Save writes the current config to the user config file.
func (m *Manager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	dir := filepath.Join(home, ".logsieve")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(m.config)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0o644)
}

var (
	globalManager *Manager
	globalOnce    sync.Once
)

// Global returns the global configuration manager.
func Global() *Manager {
	globalOnce.Do(func() {
		globalManager = NewManager()
		globalManager.Load()
	})
	return globalManager
}
