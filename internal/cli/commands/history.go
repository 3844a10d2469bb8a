package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"stp/internal/config"
	"stp/internal/history"
	"stp/internal/ui"
)

// HistoryCommand handles the history command
type HistoryCommand struct {
	config    *config.Config
	formatter *ui.Formatter
}

// NewHistoryCommand creates a new HistoryCommand
func NewHistoryCommand(cfg *config.Config, formatter *ui.Formatter) *HistoryCommand {
	return &HistoryCommand{config: cfg, formatter: formatter}
}

// Execute lists recent runs from the history database
func (hc *HistoryCommand) Execute(cmd *cobra.Command, args []string) error {
	dsn := hc.config.HistoryDSN()
	if dsn == "" {
		return fmt.Errorf("run history is not configured, set %s", config.EnvHistoryDSN)
	}

	store, err := history.Open(dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	rows, err := store.Recent(hc.config.Flags.Limit)
	if err != nil {
		return err
	}

	entries := make([]ui.HistoryEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, ui.HistoryEntry{
			RunID:    r.RunID,
			Script:   r.Script,
			Executed: r.Executed,
			Failed:   r.Failed,
			Skipped:  r.Skipped,
			Duration: r.Duration,
		})
	}
	hc.formatter.PrintHistory(entries)
	return nil
}
