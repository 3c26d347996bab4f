// Package cmd wires the engine into a cobra CLI: run a request, inspect a
// persisted workflow, resume an incomplete one.
package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orchestrator",
		Short: "Agentic task orchestration engine",
		Long: `Orchestrator takes a natural-language request, classifies it, and either
runs it directly (file creation, web browsing, web-to-file) or expands it
into a dependency graph of typed subtasks executed with bounded
concurrency.

Workflows are persisted so an interrupted run can be inspected and
resumed.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "path to config file (default: $ORCHESTRATOR_HOME/config.yaml)")

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewStatusCommand())
	cmd.AddCommand(NewResumeCommand())

	return cmd
}
