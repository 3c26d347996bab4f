// Package task defines the unit of work the engine schedules: a single
// step in a Workflow's dependency graph.
package task

import "time"

// Type names the handler a Dispatcher should route a task to.
type Type string

const (
	TypeFileCreation  Type = "file_creation"
	TypeWebBrowsing   Type = "web_browsing"
	TypeImageAnalysis Type = "image_analysis"
	TypeGeneral       Type = "general"
)

// KnownTypes lists every task type the dispatcher can route.
var KnownTypes = []Type{TypeFileCreation, TypeWebBrowsing, TypeImageAnalysis, TypeGeneral}

// IsValid reports whether t is a type the dispatcher knows how to route.
func (t Type) IsValid() bool {
	switch t {
	case TypeFileCreation, TypeWebBrowsing, TypeImageAnalysis, TypeGeneral:
		return true
	default:
		return false
	}
}

// State is a task's position in its lifecycle. Terminal states
// (Completed, Failed, Cancelled) never transition further once reached.
// Blocked is not terminal in the result-carrying sense but is settled for
// the duration of a run: a blocked task is never dispatched.
type State string

const (
	StatePending    State = "pending"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateBlocked    State = "blocked"
	StateCancelled  State = "cancelled"
)

// IsTerminal reports whether s is a state a task never leaves. A terminal
// task carries a Result; a blocked one does not.
func (s State) IsTerminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

// IsSettled reports whether the executor has nothing further to do with a
// task in state s during the current run. Blocked counts: a task whose
// upstream failed is never dispatched, and no transition out of blocked is
// allowed, so a resumed run does not restart it either.
func (s State) IsSettled() bool {
	return s.IsTerminal() || s == StateBlocked
}

// Result is the outcome of executing a task. A Result is only ever
// attached to a task in a terminal state.
type Result struct {
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
	Artifacts map[string]any `json:"artifacts,omitempty"`
}

// Task is one node in a Workflow's dependency graph.
type Task struct {
	ID           string         `json:"id"`
	Description  string         `json:"description"`
	Type         Type           `json:"type"`
	Dependencies []string       `json:"dependencies,omitempty"`
	State        State          `json:"state"`
	Result       *Result        `json:"result,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

// CanTransitionTo reports whether moving from t's current state to next is
// legal: settled states (terminal or blocked) never leave, and a task may only become
// in_progress from pending.
func (t *Task) CanTransitionTo(next State) bool {
	if t.State.IsSettled() {
		return false
	}
	switch t.State {
	case StatePending:
		return next == StateInProgress || next == StateBlocked || next == StateCancelled
	case StateInProgress:
		return next == StateCompleted || next == StateFailed || next == StateCancelled
	default:
		return false
	}
}

// HasResult reports whether the task carries a result. A result is
// present exactly when the task is terminal.
func (t *Task) HasResult() bool {
	return t.Result != nil
}

// StringParam returns the named parameter as a string, or "" when the
// parameter is absent or not a string.
func (t *Task) StringParam(key string) string {
	if t.Parameters == nil {
		return ""
	}
	if v, ok := t.Parameters[key].(string); ok {
		return v
	}
	return ""
}
