// Package exec drives a persisted workflow to completion: it walks the
// dependency graph, dispatches ready tasks with bounded concurrency,
// records outcomes through the store, and blocks the dependents of failed
// tasks while independent branches keep running.
package exec

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sunkencity999/agentic-orchestrator/internal/errs"
	"github.com/sunkencity999/agentic-orchestrator/internal/logger"
	"github.com/sunkencity999/agentic-orchestrator/internal/task"
	"github.com/sunkencity999/agentic-orchestrator/internal/workflow"
)

// TaskDispatcher is the behavior the executor needs from a dispatcher.
type TaskDispatcher interface {
	Dispatch(ctx context.Context, t task.Task, prior map[string]any) task.Result
}

// ProgressFunc is invoked after each task outcome is recorded (together
// with any dependents it blocked), and once more if the final sweep blocks
// leftover pending tasks, with the workflow-level completed/total counts.
// Moving a task to in_progress does not trigger it.
type ProgressFunc func(completed, total int)

// Executor advances one workflow at a time per workflow id. Within a
// workflow it runs up to MaxParallel tasks concurrently.
type Executor struct {
	store      *workflow.Store
	dispatcher TaskDispatcher
	logger     logger.Logger

	// MaxParallel is the per-workflow concurrency cap (P). Values below 1
	// are treated as 1.
	MaxParallel int

	// TaskTimeout is the per-task deadline. Zero disables deadlines.
	TaskTimeout time.Duration

	// Progress, when set, receives a push update after each recorded task
	// outcome (see ProgressFunc).
	Progress ProgressFunc

	mu      sync.Mutex
	running map[string]bool
}

// New builds an Executor over a store and dispatcher.
func New(store *workflow.Store, dispatcher TaskDispatcher, log logger.Logger) *Executor {
	return &Executor{
		store:       store,
		dispatcher:  dispatcher,
		logger:      log,
		MaxParallel: 1,
		running:     make(map[string]bool),
	}
}

// acquire enforces the single-owner invariant: at most one run advances a
// given workflow at a time.
func (e *Executor) acquire(workflowID string) (release func(), err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running[workflowID] {
		return nil, fmt.Errorf("workflow %s is already being executed", workflowID)
	}
	e.running[workflowID] = true
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.running, workflowID)
	}, nil
}

type taskOutcome struct {
	taskID string
	state  task.State
	result *task.Result
}

// Run loads a workflow, validates its graph, and executes it to
// quiescence. Handler failures are recorded on their tasks and do not
// fail the run; only store or validation errors, or a second concurrent
// Run of the same workflow, come back as err. A
// workflow with every task already completed is a no-op.
func (e *Executor) Run(ctx context.Context, workflowID string) (*workflow.Workflow, error) {
	release, err := e.acquire(workflowID)
	if err != nil {
		return nil, err
	}
	defer release()

	w, err := e.store.Load(workflowID)
	if err != nil {
		return nil, err
	}
	if err := workflow.Validate(w); err != nil {
		return nil, errs.NewPlanningError(w.Description, "invalid workflow graph", err)
	}

	st := w.Status()
	if st.Total == 0 || st.Overall == workflow.OverallCompleted {
		return w, nil
	}

	if e.logger != nil {
		e.logger.LogInfo(fmt.Sprintf("executing workflow %s: %d tasks", workflowID, st.Total))
	}

	maxParallel := e.MaxParallel
	if maxParallel < 1 {
		maxParallel = 1
	}

	results := make(chan taskOutcome)
	inFlight := 0

	for {
		// Launch while capacity and ready work remain. A cancelled context
		// starts nothing new; in-flight tasks observe it cooperatively.
		if ctx.Err() == nil {
			for _, taskID := range w.ReadySet() {
				if inFlight >= maxParallel {
					break
				}
				updated, err := e.store.UpdateTask(workflowID, taskID, workflow.TaskDelta{State: task.StateInProgress})
				if err != nil {
					return w, err
				}
				w = updated
				t := *w.Find(taskID)
				if e.logger != nil {
					e.logger.LogTaskStart(t)
				}
				inFlight++
				go e.launch(ctx, results, t, collectPriorArtifacts(w, &t))
			}
		}

		if inFlight == 0 {
			break
		}

		outcome := <-results
		inFlight--

		updated, err := e.store.UpdateTask(workflowID, outcome.taskID, workflow.TaskDelta{
			State:  outcome.state,
			Result: outcome.result,
		})
		if err != nil {
			return w, err
		}
		w = updated

		if e.logger != nil {
			e.logger.LogTaskResult(*w.Find(outcome.taskID))
		}

		if outcome.state == task.StateFailed {
			w, err = e.blockDependents(w, outcome.taskID)
			if err != nil {
				return w, err
			}
		}

		e.emitProgress(w)
	}

	// Quiescent with pending tasks left means their upstream failed or the
	// run was cancelled before they became ready: either way they cannot
	// start this run.
	w, err = e.sweepUnreachable(ctx, w)
	if err != nil {
		return w, err
	}

	if e.logger != nil {
		final := w.Status()
		e.logger.LogInfo(fmt.Sprintf("workflow %s finished: %s (%d/%d completed)",
			workflowID, final.Overall, final.Completed, final.Total))
	}
	return w, nil
}

// launch dispatches one task under its deadline and reports the outcome.
func (e *Executor) launch(ctx context.Context, results chan<- taskOutcome, t task.Task, prior map[string]any) {
	taskCtx := ctx
	var cancel context.CancelFunc
	if e.TaskTimeout > 0 {
		taskCtx, cancel = context.WithTimeout(ctx, e.TaskTimeout)
		defer cancel()
	}

	res := e.dispatcher.Dispatch(taskCtx, t, prior)

	outcome := taskOutcome{taskID: t.ID}
	switch {
	case res.Success:
		outcome.state = task.StateCompleted
		outcome.result = &res
	case taskCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil:
		outcome.state = task.StateFailed
		outcome.result = &task.Result{
			Success:   false,
			Error:     errs.NewTimeoutError(t.ID, e.TaskTimeout).Error(),
			Artifacts: res.Artifacts,
		}
	case ctx.Err() != nil:
		outcome.state = task.StateCancelled
		outcome.result = &task.Result{Success: false, Error: "cancelled", Artifacts: res.Artifacts}
	default:
		if res.Error == "" {
			res.Error = "handler failed without an error message"
		}
		outcome.state = task.StateFailed
		outcome.result = &res
	}

	results <- outcome
}

// blockDependents transitions every pending transitive dependent of a
// failed task to blocked. Dependents of a cancelled task are left pending
// so a resumed run can settle them.
func (e *Executor) blockDependents(w *workflow.Workflow, taskID string) (*workflow.Workflow, error) {
	for _, depID := range workflow.TransitiveDependents(w, taskID) {
		t := w.Find(depID)
		if t == nil || t.State != task.StatePending {
			continue
		}
		updated, err := e.store.UpdateTask(w.ID, depID, workflow.TaskDelta{State: task.StateBlocked})
		if err != nil {
			return w, err
		}
		w = updated
	}
	return w, nil
}

// sweepUnreachable settles leftover pending tasks after the loop drains.
// An upstream failure strands its dependents: they become blocked. A
// cancelled run leaves never-started tasks pending so a resume can pick
// them up.
func (e *Executor) sweepUnreachable(ctx context.Context, w *workflow.Workflow) (*workflow.Workflow, error) {
	if ctx.Err() != nil {
		return w, nil
	}

	changed := false
	for i := range w.Tasks {
		if w.Tasks[i].State != task.StatePending {
			continue
		}
		updated, err := e.store.UpdateTask(w.ID, w.Tasks[i].ID, workflow.TaskDelta{State: task.StateBlocked})
		if err != nil {
			return w, err
		}
		w = updated
		changed = true
	}
	if changed {
		e.emitProgress(w)
	}
	return w, nil
}

func (e *Executor) emitProgress(w *workflow.Workflow) {
	st := w.Status()
	if e.logger != nil {
		e.logger.LogProgress(st.Completed, st.Total)
	}
	if e.Progress != nil {
		e.Progress(st.Completed, st.Total)
	}
}

// collectPriorArtifacts merges the artifacts of a task's completed
// dependencies, namespaced as <task_type>_<key> so downstream handlers
// can tell sources apart.
func collectPriorArtifacts(w *workflow.Workflow, t *task.Task) map[string]any {
	prior := make(map[string]any)
	for _, depID := range t.Dependencies {
		dep := w.Find(depID)
		if dep == nil || dep.Result == nil {
			continue
		}
		for k, v := range dep.Result.Artifacts {
			prior[fmt.Sprintf("%s_%s", dep.Type, k)] = v
		}
	}
	return prior
}
