package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"stp/internal/config"
	"stp/internal/report"
	"stp/internal/ui"
)

// FailuresCommand handles the failures command
type FailuresCommand struct {
	config *config.Config
	store  *report.RunStore
	viewer *ui.FailureViewer
}

// NewFailuresCommand creates a new FailuresCommand
func NewFailuresCommand(cfg *config.Config, store *report.RunStore, viewer *ui.FailureViewer) *FailuresCommand {
	return &FailuresCommand{config: cfg, store: store, viewer: viewer}
}

// Execute shows the last run's failures in the interactive viewer
func (fc *FailuresCommand) Execute(cmd *cobra.Command, args []string) error {
	results, err := fc.store.Load()
	if err != nil {
		return fmt.Errorf("no saved run results (run tests first): %w", err)
	}
	return fc.viewer.View(results)
}
