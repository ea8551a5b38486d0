package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/logsieve/logsieve/pkg/report"
	"github.com/logsieve/logsieve/pkg/tui"
)

var reportCmd = &cobra.Command{
	Use:   "report [report.json]",
	Short: "Render a quality report for the terminal",
	Long: `Pretty-print a quality report produced by a previous validate run.

Examples:
  logsieve report report.json`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	rep, err := report.Read(f)
	if err != nil {
		return err
	}
	tui.PrintReport(rep, cfg.Output.CleanPath, cfg.Output.QuarantinePath, 0)
	return nil
}
