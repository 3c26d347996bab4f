// Manual end-to-end harness: runs the hybrid path headless with stubbed
// collaborators and verifies the file lands on disk. Not a unit test;
// build and run directly when poking at the engine.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sunkencity999/agentic-orchestrator/internal/classify"
	"github.com/sunkencity999/agentic-orchestrator/internal/collab"
	"github.com/sunkencity999/agentic-orchestrator/internal/collab/localfiles"
	"github.com/sunkencity999/agentic-orchestrator/internal/collab/webstub"
	"github.com/sunkencity999/agentic-orchestrator/internal/dispatch"
	"github.com/sunkencity999/agentic-orchestrator/internal/exec"
	"github.com/sunkencity999/agentic-orchestrator/internal/hybrid"
	"github.com/sunkencity999/agentic-orchestrator/internal/logger"
	"github.com/sunkencity999/agentic-orchestrator/internal/orchestrate"
	"github.com/sunkencity999/agentic-orchestrator/internal/plan"
	"github.com/sunkencity999/agentic-orchestrator/internal/workflow"
)

type cannedLLM struct{}

func (cannedLLM) Complete(context.Context, string) (string, error) {
	return "# Headless Check\n\n## Result\n\nThe engine is working.\n", nil
}

func main() {
	docs, err := os.MkdirTemp("", "orchestrator-headless-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "temp dir: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(docs)

	storeRoot, err := os.MkdirTemp("", "orchestrator-store-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "temp dir: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(storeRoot)

	files, err := localfiles.New(docs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "files capability: %v\n", err)
		os.Exit(1)
	}

	web := webstub.New()
	web.SetDefault(collab.WebResult{
		URL: "https://example.com/search",
		Artifacts: map[string]any{
			"full_content": "Stubbed browse content for the headless check.",
		},
	})

	store, err := workflow.NewStore(storeRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "store: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewConsoleLogger(os.Stderr, "debug")
	llm := cannedLLM{}
	dispatcher := &dispatch.Dispatcher{LLM: llm, Web: web, Files: files, Logger: log, DocumentsDir: docs}

	orch := &orchestrate.Orchestrator{
		Classifier: classify.NewClassifier(),
		Planner:    plan.NewPlanner(llm, log),
		Store:      store,
		Executor:   exec.New(store, dispatcher, log),
		Dispatcher: dispatcher,
		Hybrid:     hybrid.NewRunner(llm, web, files, log),
		Logger:     log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	request := "Search for the latest engine news and save it as headless_check.txt"
	fmt.Fprintf(os.Stderr, "\n=== HEADLESS ENGINE TEST ===\nRequest: %s\n\n", request)

	out, err := orch.Handle(ctx, request)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "\n=== OUTCOME ===\nsuccess=%v message=%s\n", out.Success, out.Message)
	for k, v := range out.Artifacts {
		fmt.Fprintf(os.Stderr, "  %s: %v\n", k, v)
	}

	fmt.Fprintf(os.Stderr, "\n=== VERIFICATION ===\n")
	target := filepath.Join(docs, "headless_check.txt")
	if content, err := os.ReadFile(target); err == nil {
		fmt.Fprintf(os.Stderr, "file created (%d bytes):\n%s\n", len(content), string(content))
	} else {
		fmt.Fprintf(os.Stderr, "file NOT created: %v\n", err)
		os.Exit(1)
	}
}
