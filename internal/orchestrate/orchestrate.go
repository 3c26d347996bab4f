// Package orchestrate is the engine's front door: it classifies a
// request, routes it to a single-shot handler or the planner-backed
// executor, applies the shape-specific fallback chain, and returns one
// aggregate outcome.
package orchestrate

import (
	"context"
	"fmt"

	"github.com/sunkencity999/agentic-orchestrator/internal/aggregate"
	"github.com/sunkencity999/agentic-orchestrator/internal/classify"
	"github.com/sunkencity999/agentic-orchestrator/internal/dispatch"
	"github.com/sunkencity999/agentic-orchestrator/internal/exec"
	"github.com/sunkencity999/agentic-orchestrator/internal/history"
	"github.com/sunkencity999/agentic-orchestrator/internal/hybrid"
	"github.com/sunkencity999/agentic-orchestrator/internal/logger"
	"github.com/sunkencity999/agentic-orchestrator/internal/task"
	"github.com/sunkencity999/agentic-orchestrator/internal/workflow"
)

// Planner is the behavior the orchestrator needs from the plan package.
type Planner interface {
	Plan(ctx context.Context, request string) (*workflow.Workflow, error)
}

// Orchestrator routes requests through the engine. All collaborators are
// injected; History may be nil to disable audit recording.
type Orchestrator struct {
	Classifier *classify.Classifier
	Planner    Planner
	Store      *workflow.Store
	Executor   *exec.Executor
	Dispatcher *dispatch.Dispatcher
	Hybrid     *hybrid.Runner
	History    *history.Store
	Logger     logger.Logger
}

// Handle classifies and runs one request. Handler failures come back as
// an unsuccessful Outcome; only planning and store failures are returned
// as err.
func (o *Orchestrator) Handle(ctx context.Context, request string) (aggregate.Outcome, error) {
	shape := o.Classifier.Classify(request)
	o.recordClassification(ctx, request, shape)

	if o.Logger != nil {
		o.Logger.LogInfo(fmt.Sprintf("request classified as %s", shape))
	}

	switch shape {
	case classify.ShapeDirectFile:
		return o.runDirectFile(ctx, request), nil
	case classify.ShapeWebOnly:
		return o.runWebOnly(ctx, request)
	case classify.ShapeHybrid:
		return o.runHybrid(ctx, request), nil
	default:
		return o.runComplex(ctx, request)
	}
}

// runDirectFile is the one-shot file path. It has no fallback: a failure
// is reported as-is.
func (o *Orchestrator) runDirectFile(ctx context.Context, request string) aggregate.Outcome {
	res := o.Dispatcher.Dispatch(ctx, task.Task{
		ID:          workflow.NewTaskID(),
		Description: request,
		Type:        task.TypeFileCreation,
		State:       task.StateInProgress,
	}, nil)
	return singleShotOutcome(res, "file created", "file creation failed")
}

// runWebOnly is the one-shot browse path. On failure it tries the hybrid
// path when the request carries file-output signals, or the planner when
// the request reads as multi-step; the fallback handler itself never falls
// back further.
func (o *Orchestrator) runWebOnly(ctx context.Context, request string) (aggregate.Outcome, error) {
	res := o.Dispatcher.Dispatch(ctx, task.Task{
		ID:          workflow.NewTaskID(),
		Description: request,
		Type:        task.TypeWebBrowsing,
		State:       task.StateInProgress,
	}, nil)
	if res.Success {
		return singleShotOutcome(res, "browse completed", ""), nil
	}

	signals := classify.ExtractSignals(request)
	switch {
	case signals.File:
		if o.Logger != nil {
			o.Logger.LogWarn("web browse failed, falling back to hybrid")
		}
		return o.runHybridOnce(ctx, request), nil
	case signals.MultiStep() || signals.ActionVerbs >= 2:
		if o.Logger != nil {
			o.Logger.LogWarn("web browse failed, routing to planner")
		}
		return o.runComplex(ctx, request)
	default:
		return singleShotOutcome(res, "", "web browse failed"), nil
	}
}

// runHybrid runs the web-to-file fast path, falling back to direct file
// creation with the original request when it fails.
func (o *Orchestrator) runHybrid(ctx context.Context, request string) aggregate.Outcome {
	res, err := o.Hybrid.Run(ctx, request)
	if err == nil {
		return singleShotOutcome(res, "file created from web content", "")
	}
	if o.Logger != nil {
		o.Logger.LogWarn(fmt.Sprintf("hybrid run failed (%v), falling back to direct file creation", err))
	}
	return o.runDirectFile(ctx, request)
}

// runHybridOnce is the hybrid path as a fallback target: a failure here is
// final.
func (o *Orchestrator) runHybridOnce(ctx context.Context, request string) aggregate.Outcome {
	res, err := o.Hybrid.Run(ctx, request)
	if err != nil {
		return aggregate.Outcome{Success: false, Message: fmt.Sprintf("hybrid fallback failed: %v", err)}
	}
	return singleShotOutcome(res, "file created from web content", "")
}

// runComplex plans, persists, executes, and aggregates a workflow.
func (o *Orchestrator) runComplex(ctx context.Context, request string) (aggregate.Outcome, error) {
	w, err := o.Planner.Plan(ctx, request)
	if err != nil {
		return aggregate.Outcome{Success: false, Message: "planning failed"}, err
	}

	id, err := o.Store.Create(w)
	if err != nil {
		return aggregate.Outcome{Success: false, Message: "could not persist workflow"}, err
	}

	final, err := o.Executor.Run(ctx, id)
	if err != nil {
		return aggregate.Outcome{Success: false, Message: "execution aborted"}, err
	}

	o.recordTaskOutcomes(ctx, final)
	return aggregate.Aggregate(final), nil
}

// Resume re-attaches the executor to a persisted workflow and aggregates
// the result.
func (o *Orchestrator) Resume(ctx context.Context, workflowID string) (aggregate.Outcome, error) {
	final, err := o.Executor.Run(ctx, workflowID)
	if err != nil {
		return aggregate.Outcome{Success: false, Message: "execution aborted"}, err
	}
	o.recordTaskOutcomes(ctx, final)
	return aggregate.Aggregate(final), nil
}

// singleShotOutcome converts one handler result into an Outcome. Unlike
// workflow aggregation, single-shot artifacts keep their raw keys.
func singleShotOutcome(res task.Result, okMsg, failMsg string) aggregate.Outcome {
	if res.Success {
		return aggregate.Outcome{Success: true, Message: okMsg, Artifacts: res.Artifacts}
	}
	msg := failMsg
	if msg == "" {
		msg = res.Error
	} else if res.Error != "" {
		msg = fmt.Sprintf("%s: %s", failMsg, res.Error)
	}
	return aggregate.Outcome{Success: false, Message: msg, Artifacts: res.Artifacts}
}

func (o *Orchestrator) recordClassification(ctx context.Context, request string, shape classify.Shape) {
	if o.History == nil {
		return
	}
	rec := &history.ClassificationRecord{Request: request, Shape: string(shape)}
	if err := o.History.RecordClassification(ctx, rec); err != nil && o.Logger != nil {
		o.Logger.LogWarn(fmt.Sprintf("history: %v", err))
	}
}

func (o *Orchestrator) recordTaskOutcomes(ctx context.Context, w *workflow.Workflow) {
	if o.History == nil {
		return
	}
	for i := range w.Tasks {
		t := &w.Tasks[i]
		if !t.State.IsSettled() {
			continue
		}
		rec := &history.TaskExecutionRecord{
			WorkflowID:  w.ID,
			TaskID:      t.ID,
			Description: t.Description,
			TaskType:    string(t.Type),
			State:       string(t.State),
			Success:     t.State == task.StateCompleted,
		}
		if t.Result != nil {
			rec.ErrorMessage = t.Result.Error
		}
		if t.StartedAt != nil && t.CompletedAt != nil {
			rec.DurationSecs = int64(t.CompletedAt.Sub(*t.StartedAt).Seconds())
		}
		if err := o.History.RecordTaskExecution(ctx, rec); err != nil && o.Logger != nil {
			o.Logger.LogWarn(fmt.Sprintf("history: %v", err))
		}
	}
}
