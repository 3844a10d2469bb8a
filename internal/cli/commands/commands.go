package commands

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stp/internal/cli"
	"stp/internal/config"
	"stp/internal/discovery"
	"stp/internal/report"
	"stp/internal/ui"
)

// Commands holds all CLI commands
type Commands struct {
	Run      *RunCommand
	List     *ListCommand
	Failures *FailuresCommand
	History  *HistoryCommand
}

// NewCommands creates all commands with dependencies
func NewCommands(cfg *config.Config) *Commands {
	scanner := discovery.NewScanner()
	filter := discovery.NewFilter()
	store := report.NewRunStore(cfg)
	formatter := ui.NewFormatter(cfg)
	viewer := ui.NewFailureViewer(cfg)

	return &Commands{
		Run:      NewRunCommand(cfg, scanner, filter, store, formatter),
		List:     NewListCommand(cfg, scanner, filter, formatter),
		Failures: NewFailuresCommand(cfg, store, viewer),
		History:  NewHistoryCommand(cfg, formatter),
	}
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags, cfg *config.Config) {
	applyFlags := func(cmd *cobra.Command, args []string) error {
		*cfg = *config.Load(flags.ToConfigFlags())
		return nil
	}

	// Run command
	runCmd := &cobra.Command{
		Use:     "run <script> [filter]",
		Short:   "Run the script's test procedures",
		Long:    "Discover Test_ procedures in the script and execute each in isolation with setup/teardown, timeout and flaky-retry handling",
		Args:    cobra.RangeArgs(1, 2),
		RunE:    c.Run.Execute,
		PreRunE: applyFlags,
	}
	runCmd.Flags().DurationVar(&flags.Timeout, "timeout", config.DefaultTimeout, "Per-test deadline")
	runCmd.Flags().IntVar(&flags.Retries, "retries", config.DefaultMaxRetries, "Extra attempts for a failed test (0 disables retries)")
	runCmd.Flags().DurationVar(&flags.FlakyDelay, "flaky-delay", config.DefaultFlakyDelay, "Pause between retry attempts")
	runCmd.Flags().StringVarP(&flags.OutDir, "out-dir", "o", "", "Directory for report artifacts (test.log, messages, markers)")
	runCmd.Flags().StringVarP(&flags.RuntimeCmd, "runtime-cmd", "r", "", "Command that interprets the test script")
	runCmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(runCmd)

	// List command
	listCmd := &cobra.Command{
		Use:     "list <script>",
		Short:   "List discovered tests",
		Long:    "Scan the script and list its Test_ procedures without executing them",
		Args:    cobra.ExactArgs(1),
		RunE:    c.List.Execute,
		PreRunE: applyFlags,
	}
	listCmd.Flags().StringVarP(&flags.Filter, "filter", "f", "", "Filter tests by name pattern (regex, falls back to substring)")
	rootCmd.AddCommand(listCmd)

	// Failures command
	failuresCmd := &cobra.Command{
		Use:     "failures",
		Short:   "View test failures interactively",
		Long:    "Display test failures from the last run in an interactive viewer",
		RunE:    c.Failures.Execute,
		PreRunE: applyFlags,
	}
	rootCmd.AddCommand(failuresCmd)

	// History command
	historyCmd := &cobra.Command{
		Use:     "history",
		Short:   "List recorded runs",
		Long:    "List recent runs from the MySQL history database (requires STP_HISTORY_DSN)",
		RunE:    c.History.Execute,
		PreRunE: applyFlags,
	}
	historyCmd.Flags().IntVarP(&flags.Limit, "limit", "n", 20, "Number of runs to list")
	rootCmd.AddCommand(historyCmd)
}

// newLogger builds the debug logger used by the engine components.
func newLogger(cfg *config.Config) zerolog.Logger {
	level := zerolog.WarnLevel
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}
