// Package visioncli implements collab.Vision by shelling out to the same
// LLM CLI the engine uses for completions, with an image-aware prompt.
// When no CLI is configured the analyzer reports itself unavailable
// rather than guessing.
package visioncli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sunkencity999/agentic-orchestrator/internal/budget"
	"github.com/sunkencity999/agentic-orchestrator/internal/collab/llmcli"
	"github.com/sunkencity999/agentic-orchestrator/internal/errs"
)

// Analyzer implements collab.Vision over an LLM CLI invoker.
type Analyzer struct {
	client *llmcli.Client
}

// New builds an Analyzer. An empty path disables the analyzer: Analyze
// will return a "vision not configured" handler error.
func New(path string, timeout time.Duration, logger budget.WaiterLogger) *Analyzer {
	if path == "" {
		return &Analyzer{}
	}
	return &Analyzer{client: llmcli.NewClient(path, timeout, logger)}
}

// Analyze implements collab.Vision. The image path is verified before the
// CLI is invoked so a missing file fails fast with a usable message.
func (a *Analyzer) Analyze(ctx context.Context, path string, prompt string) (string, error) {
	if a == nil || a.client == nil {
		return "", errs.NewHandlerError("", "vision not configured", nil)
	}
	if _, err := os.Stat(path); err != nil {
		return "", errs.NewHandlerError("", fmt.Sprintf("image %s not readable", path), err)
	}
	if prompt == "" {
		prompt = "Describe this image in detail."
	}
	full := fmt.Sprintf("Analyze the image at %s.\n\n%s", path, prompt)
	out, err := a.client.Complete(ctx, full)
	if err != nil {
		return "", errs.NewHandlerError("", "vision analysis failed", err)
	}
	return out, nil
}
