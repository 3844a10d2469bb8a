package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stp/internal/cli"
	"stp/internal/cli/commands"
	"stp/internal/config"
)

var version = "dev"

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:     "stp",
		Short:   "Script test processor",
		Long:    `A test-execution harness for scripts containing named test procedures. Discovers Test_ procedures, runs each in isolation with setup/teardown hooks, a per-test timeout and flaky-failure retries, and appends results to durable report logs.`,
		Version: version,
	}

	// Create initial config with defaults
	cfg := config.New()

	// Create flags struct (will be populated by command flags)
	var flags cli.Flags

	// Create commands with dependencies
	cmds := commands.NewCommands(cfg)

	// Register all commands
	cmds.Register(rootCmd, &flags, cfg)

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
