// Package plan decomposes a complex request into a workflow: an ordered
// list of typed subtasks with explicit dependencies, produced by the LLM
// and validated before anything executes.
package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sunkencity999/agentic-orchestrator/internal/classify"
	"github.com/sunkencity999/agentic-orchestrator/internal/collab"
	"github.com/sunkencity999/agentic-orchestrator/internal/collab/llmcli"
	"github.com/sunkencity999/agentic-orchestrator/internal/errs"
	"github.com/sunkencity999/agentic-orchestrator/internal/logger"
	"github.com/sunkencity999/agentic-orchestrator/internal/task"
	"github.com/sunkencity999/agentic-orchestrator/internal/workflow"
)

// maxPlanSteps bounds how many subtasks a single request may expand into.
const maxPlanSteps = 20

// planResponse is the JSON shape the LLM is asked to produce. DependsOn
// holds 1-based step numbers in presentation order.
type planResponse struct {
	Tasks []planStep `json:"tasks"`
}

type planStep struct {
	Description string `json:"description"`
	Type        string `json:"type"`
	DependsOn   []int  `json:"depends_on"`
}

// Planner turns a request into a validated workflow.
type Planner struct {
	LLM    collab.LLM
	Logger logger.Logger

	extractor classify.Extractor
}

// NewPlanner builds a Planner over an LLM collaborator.
func NewPlanner(llm collab.LLM, log logger.Logger) *Planner {
	return &Planner{LLM: llm, Logger: log}
}

// Plan asks the LLM for a decomposition and translates it into a
// workflow: stable opaque task ids, step-number dependencies rewritten as
// id references, graph validated. Out-of-range and self references are
// repaired by dropping them; a cyclic plan is unrepairable and fails
// before execution.
func (p *Planner) Plan(ctx context.Context, request string) (*workflow.Workflow, error) {
	raw, err := p.LLM.Complete(ctx, planningPrompt(request))
	if err != nil {
		return nil, errs.NewPlanningError(request, "llm decomposition failed", err)
	}

	resp, err := parsePlanResponse(raw)
	if err != nil {
		return nil, errs.NewPlanningError(request, "unparseable plan", err)
	}
	if len(resp.Tasks) == 0 {
		return nil, errs.NewPlanningError(request, "plan contains no tasks", nil)
	}
	if len(resp.Tasks) > maxPlanSteps {
		return nil, errs.NewPlanningError(request,
			fmt.Sprintf("plan has %d steps, limit is %d", len(resp.Tasks), maxPlanSteps), nil)
	}

	w := workflow.New(request)
	ids := make([]string, len(resp.Tasks))
	for i := range resp.Tasks {
		ids[i] = workflow.NewTaskID()
	}

	for i, step := range resp.Tasks {
		if strings.TrimSpace(step.Description) == "" {
			return nil, errs.NewPlanningError(request, fmt.Sprintf("step %d has no description", i+1), nil)
		}

		t := task.Task{
			ID:          ids[i],
			Description: step.Description,
			Type:        normalizeType(step.Type),
			State:       task.StatePending,
		}

		for _, ref := range step.DependsOn {
			if ref < 1 || ref > len(resp.Tasks) || ref == i+1 {
				// Locally repairable: drop the reference, keep the step.
				if p.Logger != nil {
					p.Logger.LogWarn(fmt.Sprintf("plan step %d: dropping invalid dependency reference %d", i+1, ref))
				}
				continue
			}
			t.Dependencies = append(t.Dependencies, ids[ref-1])
		}

		if t.Type == task.TypeFileCreation {
			extraction := p.extractor.Extract(step.Description)
			t.Parameters = map[string]any{"filename": extraction.Filename}
		}

		w.Tasks = append(w.Tasks, t)
	}

	if err := workflow.Validate(w); err != nil {
		return nil, errs.NewPlanningError(request, "plan graph is invalid", err)
	}

	if p.Logger != nil {
		p.Logger.LogInfo(fmt.Sprintf("planned %d tasks for request", len(w.Tasks)))
	}
	return w, nil
}

// normalizeType maps whatever label the LLM produced onto a known task
// type, defaulting to general.
func normalizeType(s string) task.Type {
	t := task.Type(strings.ToLower(strings.TrimSpace(s)))
	if t.IsValid() {
		return t
	}
	switch t {
	case "web", "browse", "search":
		return task.TypeWebBrowsing
	case "file", "write", "document":
		return task.TypeFileCreation
	case "image", "vision":
		return task.TypeImageAnalysis
	}
	return task.TypeGeneral
}

// parsePlanResponse unmarshals the LLM output, falling back to brace
// extraction when the model wrapped the JSON in prose.
func parsePlanResponse(raw string) (*planResponse, error) {
	var resp planResponse
	if err := json.Unmarshal([]byte(raw), &resp); err == nil {
		return &resp, nil
	}

	extracted := llmcli.ExtractJSON(raw)
	if extracted == "" {
		return nil, fmt.Errorf("no JSON object in plan output")
	}
	if err := json.Unmarshal([]byte(extracted), &resp); err != nil {
		return nil, fmt.Errorf("unmarshal plan: %w", err)
	}
	return &resp, nil
}

func planningPrompt(request string) string {
	var sb strings.Builder
	sb.WriteString("Decompose this request into a short ordered list of subtasks.\n\n")
	sb.WriteString("Request: " + request + "\n\n")
	sb.WriteString(`Respond with JSON only, matching:
{"tasks": [{"description": "...", "type": "file_creation|web_browsing|image_analysis|general", "depends_on": [1]}]}

Rules:
- depends_on lists 1-based step numbers that must finish first; use [] when a step is independent.
- web_browsing for anything that needs information from the web.
- file_creation for steps that write a file; mention the filename in the description when the request names one.
- image_analysis only for steps that examine an existing image file.
- Keep the list minimal; do not add review or verification steps.`)
	return sb.String()
}
