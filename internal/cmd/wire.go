package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sunkencity999/agentic-orchestrator/internal/classify"
	"github.com/sunkencity999/agentic-orchestrator/internal/collab"
	"github.com/sunkencity999/agentic-orchestrator/internal/collab/llmcli"
	"github.com/sunkencity999/agentic-orchestrator/internal/collab/localfiles"
	"github.com/sunkencity999/agentic-orchestrator/internal/collab/visioncli"
	"github.com/sunkencity999/agentic-orchestrator/internal/collab/webstub"
	"github.com/sunkencity999/agentic-orchestrator/internal/config"
	"github.com/sunkencity999/agentic-orchestrator/internal/dispatch"
	"github.com/sunkencity999/agentic-orchestrator/internal/exec"
	"github.com/sunkencity999/agentic-orchestrator/internal/history"
	"github.com/sunkencity999/agentic-orchestrator/internal/hybrid"
	"github.com/sunkencity999/agentic-orchestrator/internal/logger"
	"github.com/sunkencity999/agentic-orchestrator/internal/orchestrate"
	"github.com/sunkencity999/agentic-orchestrator/internal/plan"
	"github.com/sunkencity999/agentic-orchestrator/internal/workflow"
)

// llmTimeout bounds a single LLM CLI invocation from the CLI binding.
const llmTimeout = 10 * time.Minute

// loadConfig resolves the --config flag (or the default location) into a
// Config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		home, err := config.GetOrchestratorHome()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, "config.yaml")
	}
	return config.LoadConfig(path)
}

// buildOrchestrator wires the full engine from configuration. The web
// collaborator defaults to an empty stub: browsing is an external
// capability, and without one configured, web tasks fail cleanly and the
// fallback chain takes over.
func buildOrchestrator(cfg *config.Config) (*orchestrate.Orchestrator, *workflow.Store, error) {
	log := logger.NewConsoleLogger(os.Stderr, cfg.LogLevel)

	store, err := workflow.NewStore(cfg.StoreRoot)
	if err != nil {
		return nil, nil, err
	}

	files, err := localfiles.New(cfg.DocumentsDir)
	if err != nil {
		return nil, nil, err
	}

	llm := llmcli.NewClient(cfg.LLMCLIPath, llmTimeout, nil).WithModel(cfg.DefaultModel)
	vision := visioncli.New(cfg.LLMCLIPath, llmTimeout, nil)
	var web collab.Web = webstub.New()

	dispatcher := &dispatch.Dispatcher{
		LLM:          llm,
		Web:          web,
		Vision:       vision,
		Files:        files,
		Logger:       log,
		DocumentsDir: files.Root(),
	}

	executor := exec.New(store, dispatcher, log)
	executor.MaxParallel = cfg.MaxParallelTasks
	executor.TaskTimeout = cfg.TaskTimeout

	var hist *history.Store
	if cfg.HistoryDBPath != "" {
		hist, err = history.NewStore(cfg.HistoryDBPath)
		if err != nil {
			// Audit is optional: a broken history DB must not block runs.
			log.LogWarn(fmt.Sprintf("history disabled: %v", err))
			hist = nil
		}
	}

	return &orchestrate.Orchestrator{
		Classifier: classify.NewClassifier(),
		Planner:    plan.NewPlanner(llm, log),
		Store:      store,
		Executor:   executor,
		Dispatcher: dispatcher,
		Hybrid:     hybrid.NewRunner(llm, web, files, log),
		History:    hist,
		Logger:     log,
	}, store, nil
}
