// Package tui renders validation runs for terminals: a per-file
// progress line while the run streams and a styled report summary at
// the end. Simple, streaming output; no full-screen TUI.
package tui

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"

	"github.com/logsieve/logsieve/pkg/report"
)

// Colors (Swiss minimal)
var (
	accent  = lipgloss.Color("#FF9900")
	muted   = lipgloss.Color("#666666")
	success = lipgloss.Color("#00CC66")
	danger  = lipgloss.Color("#FF3333")
	white   = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(white)
	accentStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
	dangerStyle  = lipgloss.NewStyle().Foreground(danger).Bold(true)
)

// PrintHeader prints the tool banner.
func PrintHeader(version string) {
	fmt.Println()
	fmt.Println(titleStyle.Render("  LOGSIEVE") + mutedStyle.Render(" "+version))
	fmt.Println(mutedStyle.Render("  Auth log quality validation"))
	fmt.Println()
}

// Progress is a pipeline listener that prints one line per file.
type Progress struct {
	Quiet bool
}

// FileStarted prints the file being merged.
func (p *Progress) FileStarted(name string) {
	if p.Quiet {
		return
	}
	fmt.Printf("  %s %s\n", accentStyle.Render("▸"), mutedStyle.Render(name))
}

// FileFinished prints the per-file result.
func (p *Progress) FileFinished(name string, rows int64, failed bool) {
	if p.Quiet {
		return
	}
	if failed {
		fmt.Printf("  %s %s\n", dangerStyle.Render("✗"), name)
		return
	}
	fmt.Printf("  %s %s %s\n", successStyle.Render("✓"), name,
		mutedStyle.Render(fmt.Sprintf("(%s rows)", formatNumber(rows))))
}

// PrintReport renders the quality report summary.
func PrintReport(r *report.QualityReport, cleanPath, quarantinePath string, elapsed time.Duration) {
	fmt.Println()
	if r.Partial {
		fmt.Println(dangerStyle.Render("  ⚠ PARTIAL RUN") + mutedStyle.Render(" (cancelled before full coverage)"))
	} else {
		fmt.Println(successStyle.Render("  ✓ VALIDATION COMPLETE"))
	}
	fmt.Println()

	fmt.Printf("  %s %s", mutedStyle.Render("Rows:"), titleStyle.Render(formatNumber(r.Total)))
	if r.Total > 0 {
		fmt.Printf(" %s", mutedStyle.Render(fmt.Sprintf("(%.1f%% clean)", r.CleanRatio()*100)))
	}
	fmt.Println()
	fmt.Printf("  %s %s → %s\n", mutedStyle.Render("Clean:"), titleStyle.Render(formatNumber(r.Clean)), cleanPath)
	if r.Bad > 0 {
		fmt.Printf("  %s %s → %s\n", mutedStyle.Render("Quarantined:"), dangerStyle.Render(formatNumber(r.Bad)), quarantinePath)
	}
	if min := r.TimestampCoverage.Min; min != "" {
		fmt.Printf("  %s %s %s %s\n", mutedStyle.Render("Window:"), min, mutedStyle.Render("→"), r.TimestampCoverage.Max)
	}
	if elapsed > 0 {
		rate := float64(r.Total) / elapsed.Seconds()
		fmt.Printf("  %s %s %s\n", mutedStyle.Render("Time:"), titleStyle.Render(formatDuration(elapsed)),
			mutedStyle.Render(fmt.Sprintf("(%s rows/sec)", formatNumber(int64(rate)))))
	}

	printIssueBreakdown(r)
	printFileFailures(r)
	fmt.Println()
}

func printIssueBreakdown(r *report.QualityReport) {
	if len(r.FieldIssues) == 0 && len(r.TimestampIssues) == 0 {
		return
	}
	fmt.Println()
	fmt.Println(accentStyle.Render("  ▸ ISSUES"))

	fields := make([]string, 0, len(r.FieldIssues))
	for f := range r.FieldIssues {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		kinds := r.FieldIssues[f]
		names := make([]string, 0, len(kinds))
		for k := range kinds {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			fmt.Printf("    %s %s %s\n", titleStyle.Render(f), mutedStyle.Render(k), dangerStyle.Render(formatNumber(kinds[k])))
		}
	}

	kinds := make([]string, 0, len(r.TimestampIssues))
	for k := range r.TimestampIssues {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Printf("    %s %s %s\n", titleStyle.Render("timestamp"), mutedStyle.Render(k), dangerStyle.Render(formatNumber(r.TimestampIssues[k])))
	}
}

func printFileFailures(r *report.QualityReport) {
	if len(r.FileFailures) == 0 {
		return
	}
	fmt.Println()
	fmt.Println(dangerStyle.Render("  ▸ FILE FAILURES"))
	for _, ff := range r.FileFailures {
		fmt.Printf("    %s %s\n", titleStyle.Render(ff.File), mutedStyle.Render(ff.Reason))
	}
}

// ShowProgress creates a progress bar for a known amount of work.
func ShowProgress(total int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "",
			BarEnd:        "",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}

func formatNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}
