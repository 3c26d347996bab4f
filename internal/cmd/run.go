package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/sunkencity999/agentic-orchestrator/internal/aggregate"
)

// NewRunCommand creates the run subcommand: submit a request and stream
// progress until the outcome is ready.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <request>",
		Short: "Classify and execute a natural-language request",
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

			out, err := orch.Handle(ctx, args[0])
			if err != nil {
				return err
			}

			printOutcome(cmd, out)
			if !out.Success {
				return fmt.Errorf("request did not complete successfully")
			}
			return nil
		},
	}
	return cmd
}

func printOutcome(cmd *cobra.Command, out aggregate.Outcome) {
	w := cmd.OutOrStdout()
	useColor := w == os.Stdout && isatty.IsTerminal(os.Stdout.Fd())

	status := "FAILED"
	if out.Success {
		status = "OK"
	}
	if useColor {
		if out.Success {
			status = color.GreenString(status)
		} else {
			status = color.RedString(status)
		}
	}
	fmt.Fprintf(w, "%s %s\n", status, out.Message)

	if len(out.Artifacts) > 0 {
		keys := make([]string, 0, len(out.Artifacts))
		for k := range out.Artifacts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %v\n", k, out.Artifacts[k])
		}
	}
}
