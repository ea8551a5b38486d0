// Logsieve - auth log quality validation.
// Partitions CSV/JSON/JSONL/XLSX security logs into clean and
// quarantined rows and emits a machine-readable quality report.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/logsieve/logsieve/pkg/config"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// Global flags
var (
	cfgFile string
	verbose bool
	quiet   bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "logsieve",
	Short: "Logsieve - validate auth/security logs before they reach analytics",
	Long: `Logsieve validates authentication and security log exports against a
field specification, normalizes timestamps, and partitions every row
into exactly one of a clean dataset or a quarantine file. A JSON
quality report summarizes what was wrong and how much of the time
window the clean data covers.`,
	Version:       fmt.Sprintf("%s (%s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (merged over defaults and user config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(requeueCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(profileCmd)
}

// loadConfig layers defaults, system/user/project files, env, and the
// optional --config file.
func loadConfig() (*config.Config, error) {
	mgr := config.NewManager()
	if err := mgr.Load(); err != nil {
		return nil, err
	}
	if cfgFile != "" {
		if err := mgr.LoadFile(cfgFile); err != nil {
			return nil, err
		}
	}
	return mgr.Get(), nil
}

// setupLogger builds the process logger from config plus the verbosity
// flags.
func setupLogger(cfg *config.Config) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	if quiet && level < zerolog.WarnLevel {
		level = zerolog.WarnLevel
	}

	var logger zerolog.Logger
	if cfg.Logging.Format == "json" {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: colorable.NewColorableStderr()})
	}
	return logger.Level(level).With().Timestamp().Logger()
}
