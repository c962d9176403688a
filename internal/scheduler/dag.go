package scheduler

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gammazero/toposort"
)

// DAG holds the probe tasks for a single list item. One DAG instance
// exists per item; items never share a DAG.
type DAG struct {
	mu         sync.RWMutex
	itemID     string
	tasks      map[Kind]*Task
	dependents map[Kind][]Kind
}

// NewDAG creates an empty DAG scoped to one item.
func NewDAG(itemID string) *DAG {
	return &DAG{
		itemID:     itemID,
		tasks:      make(map[Kind]*Task),
		dependents: make(map[Kind][]Kind),
	}
}

// AddTask adds a task to the DAG. Returns an error if the kind is already present.
func (d *DAG) AddTask(task *Task) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.tasks[task.Kind]; exists {
		return fmt.Errorf("task kind %q already exists in DAG for item %q", task.Kind, d.itemID)
	}

	task.ItemID = d.itemID
	d.tasks[task.Kind] = task

	for _, depKind := range task.DependsOn {
		d.dependents[depKind] = append(d.dependents[depKind], task.Kind)
	}

	return nil
}

// Validate runs topological sort over the task kinds, detecting cycles
// and disconnected/missing dependencies.
func (d *DAG) Validate() ([]Kind, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for kind, task := range d.tasks {
		for _, depKind := range task.DependsOn {
			if _, exists := d.tasks[depKind]; !exists {
				return nil, fmt.Errorf("task %q depends on non-existent task %q", kind, depKind)
			}
		}
	}

	var edges []toposort.Edge
	for kind, task := range d.tasks {
		if len(task.DependsOn) == 0 {
			edges = append(edges, toposort.Edge{nil, kind})
		} else {
			for _, depKind := range task.DependsOn {
				edges = append(edges, toposort.Edge{depKind, kind})
			}
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, fmt.Errorf("probe DAG for item %q contains a cycle: %w", d.itemID, err)
	}

	order := make([]Kind, 0, len(sorted))
	for _, id := range sorted {
		if id != nil {
			order = append(order, id.(Kind))
		}
	}

	if len(order) != len(d.tasks) {
		found := make(map[Kind]bool, len(order))
		for _, k := range order {
			found[k] = true
		}
		var missing []string
		for k := range d.tasks {
			if !found[k] {
				missing = append(missing, k.String())
			}
		}
		return nil, fmt.Errorf("topological sort lost %d tasks: %s", len(missing), strings.Join(missing, ", "))
	}

	return order, nil
}

// Disable marks an optional task kind (and anything depending on it,
// transitively) as Skipped because the probe is turned off for this run
// (e.g. --no-ci). Safe to call before any task starts running.
func (d *DAG) Disable(kind Kind) {
	d.mu.Lock()
	defer d.mu.Unlock()

	task, ok := d.tasks[kind]
	if !ok || task.Status != Pending {
		return
	}
	task.Status = Skipped
	d.skipDependentsLocked(kind)
}

func (d *DAG) skipDependentsLocked(kind Kind) {
	for _, depKind := range d.dependents[kind] {
		dep := d.tasks[depKind]
		if dep == nil || dep.Status != Pending {
			continue
		}
		dep.Status = Skipped
		d.skipDependentsLocked(depKind)
	}
}

// Eligible returns clones of all Pending tasks whose dependencies have
// all resolved (Completed, Skipped, or Failed-with-FailSoft).
func (d *DAG) Eligible() []*Task {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var eligible []*Task
	for _, task := range d.tasks {
		if task.Status != Pending {
			continue
		}
		if d.allResolvedLocked(task) {
			eligible = append(eligible, cloneTask(task))
		}
	}
	return eligible
}

func (d *DAG) allResolvedLocked(task *Task) bool {
	for _, depKind := range task.DependsOn {
		dep, exists := d.tasks[depKind]
		if !exists || !isResolved(dep) {
			return false
		}
	}
	return true
}

func isResolved(dep *Task) bool {
	switch dep.Status {
	case Completed, Skipped:
		return true
	case Failed:
		return dep.FailureMode == FailSoft
	default:
		return false
	}
}

// MarkRunning transitions a task to Running.
func (d *DAG) MarkRunning(kind Kind) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	task, ok := d.tasks[kind]
	if !ok {
		return fmt.Errorf("task %q not found", kind)
	}
	task.Status = Running
	return nil
}

// MarkCompleted transitions a task to Completed with its result value.
func (d *DAG) MarkCompleted(kind Kind, result any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	task, ok := d.tasks[kind]
	if !ok {
		return fmt.Errorf("task %q not found", kind)
	}
	task.Status = Completed
	task.Result = result
	return nil
}

// MarkFailed transitions a task to Failed and, for FailHard tasks, skips
// every transitive dependent.
func (d *DAG) MarkFailed(kind Kind, err error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	task, ok := d.tasks[kind]
	if !ok {
		return fmt.Errorf("task %q not found", kind)
	}
	task.Status = Failed
	task.Err = err
	if task.FailureMode == FailHard {
		d.skipDependentsLocked(kind)
	}
	return nil
}

// Get returns a clone of the task for the given kind.
func (d *DAG) Get(kind Kind) (*Task, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	task, ok := d.tasks[kind]
	if !ok {
		return nil, false
	}
	return cloneTask(task), true
}

// Tasks returns clones of every task in the DAG.
func (d *DAG) Tasks() []*Task {
	d.mu.RLock()
	defer d.mu.RUnlock()
	tasks := make([]*Task, 0, len(d.tasks))
	for _, task := range d.tasks {
		tasks = append(tasks, cloneTask(task))
	}
	return tasks
}

// Done reports whether every task has settled (Completed, Failed, or Skipped).
func (d *DAG) Done() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, task := range d.tasks {
		if task.Status == Pending || task.Status == Running {
			return false
		}
	}
	return true
}
