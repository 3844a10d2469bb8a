package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stp/internal/config"
	"stp/internal/coverage"
	"stp/internal/discovery"
	"stp/internal/execution"
	"stp/internal/exitcodes"
	"stp/internal/history"
	"stp/internal/report"
	"stp/internal/runtime"
	"stp/internal/ui"
)

// RunCommand handles the run command
type RunCommand struct {
	config    *config.Config
	scanner   *discovery.Scanner
	filter    *discovery.Filter
	store     *report.RunStore
	formatter *ui.Formatter
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(
	cfg *config.Config,
	scanner *discovery.Scanner,
	filter *discovery.Filter,
	store *report.RunStore,
	formatter *ui.Formatter,
) *RunCommand {
	return &RunCommand{
		config:    cfg,
		scanner:   scanner,
		filter:    filter,
		store:     store,
		formatter: formatter,
	}
}

// Execute runs the command. The execution graph is assembled here because
// it depends on the parsed run flags.
func (rc *RunCommand) Execute(cmd *cobra.Command, args []string) error {
	script := args[0]
	pattern := ""
	if len(args) > 1 {
		pattern = args[1]
	}

	log := newLogger(rc.config)
	rt := runtime.NewExecRuntime(rc.config, rc.scanner, log)
	lifecycle := execution.NewLifecycle(rc.config, rt, log)
	retry := execution.NewRetry(rc.config, lifecycle, log)
	reporter := report.NewReporter(rc.config, log)

	orch := execution.NewOrchestrator(rc.config, rt, rc.scanner, rc.filter, retry, reporter, rc.store, log)
	orch.ShowProgress()
	orch.SetProfiler(coverage.NewProfiler(rc.config, log))

	if dsn := rc.config.HistoryDSN(); dsn != "" {
		store, err := history.Open(dsn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: run history disabled: %v\n", err)
		} else {
			defer store.Close()
			orch.SetHistory(store)
		}
	}

	start := time.Now()
	rec, code := orch.Run(cmd.Context(), script, pattern)
	rc.formatter.PrintSummary(rec, time.Since(start))

	if code != exitcodes.Success {
		os.Exit(code)
	}
	return nil
}

// ListCommand handles the list command
type ListCommand struct {
	config    *config.Config
	scanner   *discovery.Scanner
	filter    *discovery.Filter
	formatter *ui.Formatter
}

// NewListCommand creates a new ListCommand
func NewListCommand(cfg *config.Config, scanner *discovery.Scanner, filter *discovery.Filter, formatter *ui.Formatter) *ListCommand {
	return &ListCommand{config: cfg, scanner: scanner, filter: filter, formatter: formatter}
}

// Execute lists all discovered tests
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	names, err := lc.scanner.Scan(args[0])
	if err != nil {
		return err
	}
	names = lc.filter.Apply(names, lc.config.Flags.Filter)

	if len(names) == 0 {
		color.Yellow("No tests found")
		return nil
	}
	lc.formatter.PrintTests(args[0], names)
	return nil
}
