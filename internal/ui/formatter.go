package ui

import (
	"fmt"
	"time"

	"github.com/fatih/color"

	"stp/internal/config"
	"stp/internal/domain"
)

// Formatter prints run results to the console.
type Formatter struct {
	config *config.Config
}

// NewFormatter creates a new Formatter
func NewFormatter(cfg *config.Config) *Formatter {
	return &Formatter{config: cfg}
}

// PrintSummary displays the finished run's statistics.
func (f *Formatter) PrintSummary(rec *domain.RunRecord, duration time.Duration) {
	passed := rec.Executed - len(rec.Skips) - rec.Failed
	if passed < 0 {
		passed = 0
	}

	fmt.Print("\n")
	color.Cyan("╔═══════════════════════════════════════════════════════════════╗")
	color.Cyan("║                     Test Run Statistics                       ║")
	color.Cyan("╚═══════════════════════════════════════════════════════════════╝\n")

	fmt.Printf("  %-12s %s\n", "Script", rec.Script)
	fmt.Printf("  %-12s %s\n", "Run", rec.RunID)
	fmt.Printf("  %-12s ", "Executed")
	color.White("%d", rec.Executed)
	fmt.Printf("  %-12s ", "Passed")
	color.Green("%d", passed)
	fmt.Printf("  %-12s ", "Failed")
	color.Red("%d", rec.Failed)
	fmt.Printf("  %-12s ", "Skipped")
	color.Yellow("%d", len(rec.Skips))
	fmt.Printf("  %-12s %s\n", "Duration", duration.Round(time.Millisecond))

	fmt.Println()
	if rec.Failed == 0 {
		color.Green("✓ All tests passed!")
		return
	}

	color.Red("✗ %d failure(s)", rec.Failed)
	for _, failure := range rec.Failures {
		color.Red("  %s", failure.TestID)
		for _, msg := range failure.Messages {
			fmt.Printf("    %s\n", msg)
		}
	}
}

// PrintTests lists discovered test names.
func (f *Formatter) PrintTests(script string, names []string) {
	color.Cyan("Tests in %s:", script)
	for _, name := range names {
		fmt.Printf("  %s\n", name)
	}
	fmt.Println()
	color.White("%d test(s)", len(names))
}

// PrintHistory displays recent run-history rows.
func (f *Formatter) PrintHistory(rows []HistoryEntry) {
	if len(rows) == 0 {
		color.Yellow("No recorded runs")
		return
	}
	fmt.Printf("%-38s %-24s %8s %7s %8s %10s\n", "RUN", "SCRIPT", "EXECUTED", "FAILED", "SKIPPED", "DURATION")
	for _, r := range rows {
		line := fmt.Sprintf("%-38s %-24s %8d %7d %8d %9.2fs", r.RunID, r.Script, r.Executed, r.Failed, r.Skipped, r.Duration)
		if r.Failed > 0 {
			color.Red("%s", line)
		} else {
			fmt.Println(line)
		}
	}
}

// HistoryEntry mirrors history.RunRow without importing the history
// package, keeping ui free of the database dependency.
type HistoryEntry struct {
	RunID    string
	Script   string
	Executed int
	Failed   int
	Skipped  int
	Duration float64
}
