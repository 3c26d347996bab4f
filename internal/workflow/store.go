package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sunkencity999/agentic-orchestrator/internal/errs"
	"github.com/sunkencity999/agentic-orchestrator/internal/filelock"
	"github.com/sunkencity999/agentic-orchestrator/internal/task"
)

const workflowFileName = "workflow.json"

// Store owns workflow and task records on disk. Each workflow lives in its
// own directory at <root>/<workflow_id>/workflow.json, written atomically
// under a .lock sidecar so a state transition and its result land together
// or not at all.
//
// A per-workflow mutex serializes in-process mutation so that concurrent
// completion notifications from executor workers are totally ordered per
// workflow. The file lock is held only while the file is written, so it
// keeps writers in other processes from interleaving a single write; it
// does not cover UpdateTask's read-modify-write, which is ordered only
// within one process.
type Store struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a Store rooted at dir, creating the directory if
// needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("store root is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store root %s: %w", dir, err)
	}
	return &Store{root: dir, locks: make(map[string]*sync.Mutex)}, nil
}

// Root returns the store's base directory.
func (s *Store) Root() string { return s.root }

func (s *Store) workflowPath(id string) string {
	return filepath.Join(s.root, id, workflowFileName)
}

func (s *Store) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// Create persists a new workflow and returns its id. The workflow must
// pass structural validation first; a planner bug never reaches disk.
func (s *Store) Create(w *Workflow) (string, error) {
	if w.ID == "" {
		return "", errs.NewStoreError("", "create", fmt.Errorf("workflow has no id"))
	}
	if err := Validate(w); err != nil {
		return "", errs.NewStoreError(w.ID, "create", err)
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	for i := range w.Tasks {
		if w.Tasks[i].State == "" {
			w.Tasks[i].State = task.StatePending
		}
	}
	if err := s.persist(w); err != nil {
		return "", errs.NewStoreError(w.ID, "create", err)
	}
	return w.ID, nil
}

// Load materializes a workflow from disk.
func (s *Store) Load(id string) (*Workflow, error) {
	data, err := os.ReadFile(s.workflowPath(id))
	if err != nil {
		return nil, errs.NewStoreError(id, "load", err)
	}
	var w Workflow
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, errs.NewStoreError(id, "load", fmt.Errorf("corrupt workflow file: %w", err))
	}
	return &w, nil
}

// List returns the ids of all persisted workflows, newest first.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, errs.NewStoreError("", "list", err)
	}
	type entry struct {
		id  string
		mod time.Time
	}
	var found []entry
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := os.Stat(s.workflowPath(e.Name()))
		if err != nil {
			continue // directory without a workflow file is not ours
		}
		found = append(found, entry{id: e.Name(), mod: info.ModTime()})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].mod.After(found[j].mod) })
	ids := make([]string, len(found))
	for i, f := range found {
		ids[i] = f.id
	}
	return ids, nil
}

// TaskDelta is one atomic change to a task: a state transition and,
// for terminal transitions, its result.
type TaskDelta struct {
	State  task.State
	Result *task.Result
}

// UpdateTask applies delta to one task atomically: the workflow is
// re-read, the transition and result co-presence validated, and the whole
// record rewritten under the file lock. Returns the updated workflow.
func (s *Store) UpdateTask(workflowID, taskID string, delta TaskDelta) (*Workflow, error) {
	l := s.lockFor(workflowID)
	l.Lock()
	defer l.Unlock()

	w, err := s.Load(workflowID)
	if err != nil {
		return nil, err
	}

	t := w.Find(taskID)
	if t == nil {
		return nil, errs.NewStoreError(workflowID, "update_task", fmt.Errorf("no task %s", taskID))
	}
	if !t.CanTransitionTo(delta.State) {
		return nil, errs.NewStoreError(workflowID, "update_task",
			fmt.Errorf("illegal transition %s -> %s for task %s", t.State, delta.State, taskID))
	}
	if delta.State.IsTerminal() {
		if delta.Result == nil {
			return nil, errs.NewStoreError(workflowID, "update_task",
				fmt.Errorf("terminal transition to %s requires a result", delta.State))
		}
		if delta.State == task.StateFailed && (delta.Result.Success || delta.Result.Error == "") {
			return nil, errs.NewStoreError(workflowID, "update_task",
				fmt.Errorf("failed task %s requires success=false and a non-empty error", taskID))
		}
	} else if delta.Result != nil {
		return nil, errs.NewStoreError(workflowID, "update_task",
			fmt.Errorf("non-terminal transition to %s must not carry a result", delta.State))
	}

	now := time.Now().UTC()
	t.State = delta.State
	t.Result = delta.Result
	switch delta.State {
	case task.StateInProgress:
		t.StartedAt = &now
	case task.StateCompleted, task.StateFailed, task.StateCancelled:
		t.CompletedAt = &now
	}

	if err := s.persist(w); err != nil {
		return nil, errs.NewStoreError(workflowID, "update_task", err)
	}
	return w, nil
}

// Status derives the progress view for a persisted workflow.
func (s *Store) Status(workflowID string) (Status, error) {
	w, err := s.Load(workflowID)
	if err != nil {
		return Status{}, err
	}
	return w.Status(), nil
}

// persist writes the workflow file atomically under its lock sidecar.
func (s *Store) persist(w *Workflow) error {
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal workflow: %w", err)
	}
	return filelock.LockAndWrite(s.workflowPath(w.ID), data)
}
