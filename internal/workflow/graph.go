package workflow

import (
	"fmt"

	"github.com/sunkencity999/agentic-orchestrator/internal/task"
)

// Validate checks the structural invariants a workflow must satisfy before
// execution: unique non-empty task ids, dependency closure (every
// dependency names a task in the same workflow), and acyclicity.
func Validate(w *Workflow) error {
	seen := make(map[string]bool, len(w.Tasks))
	for i := range w.Tasks {
		t := &w.Tasks[i]
		if t.ID == "" {
			return fmt.Errorf("task %d has empty id", i)
		}
		if seen[t.ID] {
			return fmt.Errorf("task %s: duplicate task id", t.ID)
		}
		seen[t.ID] = true
	}

	for i := range w.Tasks {
		t := &w.Tasks[i]
		for _, dep := range t.Dependencies {
			if !seen[dep] {
				return fmt.Errorf("task %s (%s): depends on non-existent task %s", t.ID, t.Description, dep)
			}
		}
	}

	if hasCycle(w.Tasks) {
		return fmt.Errorf("circular dependency detected")
	}
	return nil
}

// hasCycle detects a dependency cycle using DFS with color marking.
func hasCycle(tasks []task.Task) bool {
	const (
		white = 0 // not visited
		gray  = 1 // visiting
		black = 2 // visited
	)

	// edges: prerequisite -> dependents
	edges := make(map[string][]string, len(tasks))
	colors := make(map[string]int, len(tasks))
	for i := range tasks {
		colors[tasks[i].ID] = white
	}
	for i := range tasks {
		for _, dep := range tasks[i].Dependencies {
			if dep == tasks[i].ID {
				return true // self-reference is a cycle
			}
			edges[dep] = append(edges[dep], tasks[i].ID)
		}
	}

	var dfs func(string) bool
	dfs = func(node string) bool {
		colors[node] = gray
		for _, neighbor := range edges[node] {
			if colors[neighbor] == gray {
				return true // back edge = cycle
			}
			if colors[neighbor] == white && dfs(neighbor) {
				return true
			}
		}
		colors[node] = black
		return false
	}

	for i := range tasks {
		if colors[tasks[i].ID] == white {
			if dfs(tasks[i].ID) {
				return true
			}
		}
	}
	return false
}

// Dependents maps each task id to the ids of tasks that depend on it,
// preserving presentation order within each list. The executor uses this
// to block downstream tasks when an upstream one fails.
func Dependents(w *Workflow) map[string][]string {
	deps := make(map[string][]string, len(w.Tasks))
	for i := range w.Tasks {
		for _, dep := range w.Tasks[i].Dependencies {
			deps[dep] = append(deps[dep], w.Tasks[i].ID)
		}
	}
	return deps
}

// TransitiveDependents returns every task id reachable downstream of root,
// not including root itself.
func TransitiveDependents(w *Workflow, root string) []string {
	deps := Dependents(w)
	var out []string
	seen := map[string]bool{root: true}
	queue := append([]string(nil), deps[root]...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
		queue = append(queue, deps[id]...)
	}
	return out
}
