package main

import (
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/logsieve/logsieve/pkg/classify"
	"github.com/logsieve/logsieve/pkg/quarantine"
	"github.com/logsieve/logsieve/pkg/report"
	"github.com/logsieve/logsieve/pkg/sinks"
	"github.com/logsieve/logsieve/pkg/tui"
)

var requeueCmd = &cobra.Command{
	Use:   "requeue [quarantine-file]",
	Short: "Re-validate quarantined rows against the current specification",
	Long: `Re-validate a quarantine file, typically after fixing the field
specification or adding a timestamp disambiguation rule. Rows that now
pass move to the clean output; the rest land in a fresh quarantine with
their current issues. Re-running requeue on its own output is
idempotent once nothing more can be repaired.

Examples:
  logsieve requeue quarantine.jsonl --prefer-format mm/dd/yyyy
  logsieve requeue quarantine.jsonl --spec fixed-fields.yaml --quarantine still-bad.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runRequeue,
}

func init() {
	requeueCmd.Flags().StringVar(&specFile, "spec", "", "Field specification file (default: built-in auth spec)")
	requeueCmd.Flags().StringVar(&cleanPath, "clean", "", "Clean output CSV path")
	requeueCmd.Flags().StringVar(&quarantinePath, "quarantine", "", "Output path for rows that are still bad")
	requeueCmd.Flags().StringVar(&reportPath, "report", "", "Quality report JSON path")
	requeueCmd.Flags().StringVar(&preferFormat, "prefer-format", "", "Disambiguation rule for timestamps matching several formats")
}

func runRequeue(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyValidateFlags(cfg)
	log := setupLogger(cfg)

	classifier, spec, err := buildValidation(cfg)
	if err != nil {
		return err
	}

	in, err := quarantine.NewReader(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	agg := report.NewAggregator()
	cleanSink, err := sinks.NewCSVWriter(cfg.Output.CleanPath, spec)
	if err != nil {
		return err
	}
	qw, err := quarantine.NewWriter(cfg.Output.QuarantinePath, agg.RunID())
	if err != nil {
		cleanSink.Close()
		return err
	}

	var repaired, stillBad int64
	var loopErr error
	for {
		entry, err := in.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			loopErr = err
			break
		}

		outcome := classifier.Classify(&entry.Record)
		agg.Add(outcome)
		cleanRec, badRec := classify.Route(&entry.Record, outcome)
		if cleanRec != nil {
			repaired++
			loopErr = cleanSink.Write(cleanRec)
		} else {
			stillBad++
			loopErr = qw.Write(badRec)
		}
		if loopErr != nil {
			break
		}
	}

	if err := cleanSink.Close(); err != nil && loopErr == nil {
		loopErr = err
	}
	if err := qw.Close(); err != nil && loopErr == nil {
		loopErr = err
	}

	rep := agg.Finalize()
	if err := writeReport(rep, cfg.Output.ReportPath); err != nil && loopErr == nil {
		loopErr = err
	}

	log.Info().Int64("repaired", repaired).Int64("still_bad", stillBad).Msg("requeue finished")
	if !quiet {
		tui.PrintReport(rep, cfg.Output.CleanPath, cfg.Output.QuarantinePath, 0)
	}
	return loopErr
}
