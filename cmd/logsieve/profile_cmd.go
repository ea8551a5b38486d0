package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/logsieve/logsieve/pkg/profile"
)

var profileJSON bool

var profileCmd = &cobra.Command{
	Use:   "profile [clean-file.csv]",
	Short: "Compute column statistics over a clean output file",
	Long: `Profile a clean CSV produced by a validate run: null rates, distinct
counts, entropy per column, value distributions for enums, and the
covered timestamp window.

Examples:
  logsieve profile clean.csv
  logsieve profile clean.csv --json > profile.json`,
	Args: cobra.ExactArgs(1),
	RunE: runProfile,
}

func init() {
	profileCmd.Flags().BoolVar(&profileJSON, "json", false, "Emit the profile as JSON")
}

func runProfile(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := profile.NewProfiler()
	if err != nil {
		return err
	}
	defer p.Close()

	prof, err := p.Analyze(ctx, args[0])
	if err != nil {
		return err
	}

	if profileJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(prof)
	}

	fmt.Printf("%s: %d rows, %d columns\n", prof.Path, prof.RowCount, prof.ColumnCount)
	if prof.WindowMin != "" {
		fmt.Printf("window: %s → %s\n", prof.WindowMin, prof.WindowMax)
	}
	fmt.Println()
	for _, col := range prof.Columns {
		fmt.Printf("%-24s %-10s null %5.1f%%  distinct %d  entropy %.2f\n",
			col.Name, col.Type, col.NullPct, col.DistinctCount, col.Entropy)
		for _, vc := range col.TopValues {
			fmt.Printf("    %-20s %d\n", vc.Value, vc.Count)
		}
	}
	return nil
}
