package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewResumeCommand creates the resume subcommand: re-attach the executor
// to an incomplete persisted workflow.
func NewResumeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume <workflow-id>",
		Short: "Continue executing an incomplete persisted workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			orch, _, err := buildOrchestrator(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			orch.Executor.Progress = func(completed, total int) {
				fmt.Fprintf(cmd.OutOrStdout(), "progress: %d/%d\n", completed, total)
			}

			out, err := orch.Resume(ctx, args[0])
			if err != nil {
				return err
			}

			printOutcome(cmd, out)
			if !out.Success {
				return fmt.Errorf("workflow did not complete successfully")
			}
			return nil
		},
	}
	return cmd
}
