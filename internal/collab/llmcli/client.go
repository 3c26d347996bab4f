package llmcli

import (
	"context"
	"fmt"
	"time"

	"github.com/sunkencity999/agentic-orchestrator/internal/budget"
)

// Client adapts an Invoker to the collab.LLM interface: a single
// Complete(ctx, prompt) -> text method with no schema, no agent
// definitions, no session resumption. It is the default production
// implementation of collab.LLM.
type Client struct {
	Service
}

// NewClient builds a Client around a fresh Invoker using the given timeout
// and CLI path (empty path defaults to "claude" on PATH).
func NewClient(path string, timeout time.Duration, logger budget.WaiterLogger) *Client {
	inv := NewInvoker()
	if path != "" {
		inv.ClaudePath = path
	}
	inv.Timeout = timeout
	inv.Logger = logger
	return &Client{Service: Service{inv: inv, Logger: logger}}
}

// WithModel sets the model passed to the CLI and returns the client for
// chaining.
func (c *Client) WithModel(model string) *Client {
	c.inv.Model = model
	return c
}

// Complete implements collab.LLM. It invokes the CLI with no JSON schema
// and returns whichever of structured_output/result/content/raw-output the
// CLI's wrapper produced.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.inv.Invoke(ctx, Request{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("llm completion failed: %w", err)
	}
	content, _, err := ParseResponse(resp.RawOutput)
	if err != nil {
		return "", fmt.Errorf("parsing llm response: %w", err)
	}
	return content, nil
}
