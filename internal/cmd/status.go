package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/sunkencity999/agentic-orchestrator/internal/aggregate"
	"github.com/sunkencity999/agentic-orchestrator/internal/workflow"
)

// NewStatusCommand creates the status subcommand: render a persisted
// workflow, or list all of them. With --watch it follows external writers
// (e.g. a second process resuming the workflow) and re-renders on change.
func NewStatusCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "status [workflow-id]",
		Short: "Inspect persisted workflows",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := workflow.NewStore(cfg.StoreRoot)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				return listWorkflows(cmd, store)
			}

			id := args[0]
			if err := renderWorkflow(cmd, store, id); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			return watchWorkflow(cmd, store, cfg.StoreRoot, id)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "re-render when the workflow file changes on disk")
	return cmd
}

func listWorkflows(cmd *cobra.Command, store *workflow.Store) error {
	ids, err := store.List()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no persisted workflows")
		return nil
	}
	for _, id := range ids {
		st, err := store.Status(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %d/%d\n", id, st.Overall, st.Completed, st.Total)
	}
	return nil
}

func renderWorkflow(cmd *cobra.Command, store *workflow.Store, id string) error {
	w, err := store.Load(id)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), aggregate.Summarize(w).Render())
	return nil
}

// watchWorkflow follows the workflow file until interrupted or the
// workflow reaches a settled overall state.
func watchWorkflow(cmd *cobra.Command, store *workflow.Store, storeRoot, id string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the workflow's directory: atomic writes land as renames, and
	// rename events only surface reliably on the parent directory.
	dir := filepath.Join(storeRoot, id)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-watcher.Errors:
			return fmt.Errorf("watch error: %w", err)
		case event := <-watcher.Events:
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := renderWorkflow(cmd, store, id); err != nil {
				return err
			}
			st, err := store.Status(id)
			if err != nil {
				return err
			}
			if st.Overall == workflow.OverallCompleted || st.Overall == workflow.OverallFailed {
				return nil
			}
		}
	}
}
