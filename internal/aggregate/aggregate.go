// Package aggregate turns a finished workflow into a single user-visible
// outcome: an overall success flag, a one-line message, and the union of
// per-task artifacts.
package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sunkencity999/agentic-orchestrator/internal/workflow"
)

// reservedKeys never surface in aggregated artifacts: opaque nested blobs
// stay inside the store.
var reservedKeys = map[string]bool{"full_result": true}

// Outcome is the aggregate view of one workflow run.
type Outcome struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Artifacts map[string]any `json:"artifacts,omitempty"`
}

// Aggregate summarizes a workflow: success when at least one task
// completed and none failed, per-task artifacts namespaced as
// <task_type>_<key>.
func Aggregate(w *workflow.Workflow) Outcome {
	st := w.Status()

	out := Outcome{
		Success:   st.Failed == 0 && st.Completed > 0,
		Artifacts: make(map[string]any),
	}

	switch {
	case st.Total == 0:
		out.Message = "no tasks were produced for this request"
	case st.Failed == 0 && st.Completed == st.Total:
		out.Message = fmt.Sprintf("all %d tasks completed", st.Total)
	case st.Completed == 0:
		out.Message = fmt.Sprintf("all tasks failed (%d failed of %d)", st.Failed, st.Total)
	default:
		out.Message = fmt.Sprintf("partial completion: %d completed, %d failed of %d",
			st.Completed, st.Failed, st.Total)
	}

	for i := range w.Tasks {
		t := &w.Tasks[i]
		if t.Result == nil {
			continue
		}
		for k, v := range t.Result.Artifacts {
			if reservedKeys[k] {
				continue
			}
			out.Artifacts[fmt.Sprintf("%s_%s", t.Type, k)] = v
		}
	}
	return out
}

// Summary is a one-screen human-readable rendering of a finished
// workflow, consumed by the CLI status command.
type Summary struct {
	WorkflowID  string
	Description string
	Status      workflow.Status
	FirstError  string
	Artifacts   []string // sorted namespaced artifact keys
}

// Summarize collects the render inputs from a workflow.
func Summarize(w *workflow.Workflow) Summary {
	s := Summary{
		WorkflowID:  w.ID,
		Description: w.Description,
		Status:      w.Status(),
	}

	keys := map[string]bool{}
	for i := range w.Tasks {
		t := &w.Tasks[i]
		if t.Result == nil {
			continue
		}
		if s.FirstError == "" && t.Result.Error != "" {
			s.FirstError = t.Result.Error
		}
		for k := range t.Result.Artifacts {
			if reservedKeys[k] {
				continue
			}
			keys[fmt.Sprintf("%s_%s", t.Type, k)] = true
		}
	}
	for k := range keys {
		s.Artifacts = append(s.Artifacts, k)
	}
	sort.Strings(s.Artifacts)
	return s
}

// Render formats the summary for a terminal.
func (s Summary) Render() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Workflow %s: %s\n", s.WorkflowID, s.Status.Overall)
	fmt.Fprintf(&sb, "  %s\n", s.Description)
	fmt.Fprintf(&sb, "  tasks: %d total, %d completed, %d failed, %d blocked, %d cancelled, %d pending, %d in progress (%d%%)\n",
		s.Status.Total, s.Status.Completed, s.Status.Failed, s.Status.Blocked,
		s.Status.Cancelled, s.Status.Pending, s.Status.InProgress, s.Status.ProgressPct)
	if s.FirstError != "" {
		fmt.Fprintf(&sb, "  first error: %s\n", s.FirstError)
	}
	if len(s.Artifacts) > 0 {
		fmt.Fprintf(&sb, "  artifacts: %s\n", strings.Join(s.Artifacts, ", "))
	}
	return sb.String()
}
