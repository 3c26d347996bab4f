// Package workflow holds the persisted dependency graph a request expands
// into: the Workflow record, its graph validation, and the Store that owns
// workflow and task state on disk.
package workflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/sunkencity999/agentic-orchestrator/internal/task"
)

// Overall is the derived status of a whole workflow.
type Overall string

const (
	OverallPending   Overall = "pending"
	OverallRunning   Overall = "running"
	OverallCompleted Overall = "completed"
	OverallFailed    Overall = "failed"
)

// Workflow is a dependency graph of tasks created from a single request.
// Tasks keeps the planner's presentation order; execution order is derived
// from Dependencies, never from slice position.
type Workflow struct {
	ID          string      `json:"id"`
	Description string      `json:"description"`
	CreatedAt   time.Time   `json:"created_at"`
	Tasks       []task.Task `json:"tasks"`
}

// New builds a Workflow with a fresh id for the given request text.
func New(description string) *Workflow {
	return &Workflow{
		ID:          uuid.NewString(),
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
}

// NewTaskID returns a fresh opaque task id.
func NewTaskID() string {
	return uuid.NewString()
}

// Find returns the task with the given id, or nil.
func (w *Workflow) Find(taskID string) *task.Task {
	for i := range w.Tasks {
		if w.Tasks[i].ID == taskID {
			return &w.Tasks[i]
		}
	}
	return nil
}

// Status is the derived per-workflow progress view.
type Status struct {
	Total       int     `json:"total"`
	Completed   int     `json:"completed"`
	Failed      int     `json:"failed"`
	InProgress  int     `json:"in_progress"`
	Pending     int     `json:"pending"`
	Blocked     int     `json:"blocked"`
	Cancelled   int     `json:"cancelled"`
	ProgressPct int     `json:"progress_pct"`
	Overall     Overall `json:"overall"`
}

// Status derives the counts-and-overall view. Overall is completed iff all
// tasks completed; failed iff any task failed with none in progress;
// running while anything is in progress; pending otherwise. An empty
// workflow is pending at 0%.
func (w *Workflow) Status() Status {
	st := Status{Total: len(w.Tasks)}
	for i := range w.Tasks {
		switch w.Tasks[i].State {
		case task.StateCompleted:
			st.Completed++
		case task.StateFailed:
			st.Failed++
		case task.StateInProgress:
			st.InProgress++
		case task.StatePending:
			st.Pending++
		case task.StateBlocked:
			st.Blocked++
		case task.StateCancelled:
			st.Cancelled++
		}
	}

	switch {
	case st.Total > 0 && st.Completed == st.Total:
		st.Overall = OverallCompleted
	case st.Failed > 0 && st.InProgress == 0:
		st.Overall = OverallFailed
	case st.InProgress > 0:
		st.Overall = OverallRunning
	default:
		st.Overall = OverallPending
	}

	if st.Total > 0 {
		st.ProgressPct = st.Completed * 100 / st.Total
	}
	return st
}

// ReadySet returns the ids of pending tasks whose dependencies are all
// completed, in presentation order. Completed specifically: a dependency
// that failed or was cancelled never unblocks its dependents.
func (w *Workflow) ReadySet() []string {
	byID := make(map[string]*task.Task, len(w.Tasks))
	for i := range w.Tasks {
		byID[w.Tasks[i].ID] = &w.Tasks[i]
	}

	var ready []string
	for i := range w.Tasks {
		t := &w.Tasks[i]
		if t.State != task.StatePending {
			continue
		}
		ok := true
		for _, dep := range t.Dependencies {
			d := byID[dep]
			if d == nil || d.State != task.StateCompleted {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, t.ID)
		}
	}
	return ready
}
