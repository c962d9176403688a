package scheduler

import (
	"context"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Prober executes one task kind for one item and returns its result value.
type Prober interface {
	Execute(ctx context.Context, itemID string, kind Kind) (any, error)
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, itemID string, kind Kind) (any, error)

func (f ProberFunc) Execute(ctx context.Context, itemID string, kind Kind) (any, error) {
	return f(ctx, itemID, kind)
}

// Observer receives notifications as tasks settle, so a renderer can
// repaint the affected row without holding a reference to the executor.
type Observer interface {
	TaskSettled(itemID string, kind Kind, task *Task)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(itemID string, kind Kind, task *Task)

func (f ObserverFunc) TaskSettled(itemID string, kind Kind, task *Task) { f(itemID, kind, task) }

// PoolSize returns the worker count:
// min(available parallelism, itemCount * avgTaskCount, 32).
func PoolSize(itemCount, avgTaskCount int) int {
	n := runtime.NumCPU()
	if cap := itemCount * avgTaskCount; cap > 0 && cap < n {
		n = cap
	}
	if n > 32 {
		n = 32
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Executor drives a set of per-item DAGs to completion using a bounded
// worker pool, dispatching eligible tasks to a Prober and notifying an
// Observer as each task settles.
type Executor struct {
	prober   Prober
	observer Observer
	poolSize int

	mu   sync.Mutex
	dags map[string]*DAG // itemID -> DAG
}

// NewExecutor creates an Executor with the given worker pool size.
func NewExecutor(prober Prober, observer Observer, poolSize int) *Executor {
	if poolSize < 1 {
		poolSize = 1
	}
	return &Executor{
		prober:   prober,
		observer: observer,
		poolSize: poolSize,
		dags:     make(map[string]*DAG),
	}
}

// Add registers an item's DAG for execution.
func (e *Executor) Add(dag *DAG, itemID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dags[itemID] = dag
}

// Run executes every eligible task across every registered DAG until all
// settle or ctx is cancelled. It proceeds in waves: each wave dispatches
// every currently eligible task under the pool's concurrency limit, then
// rescans for newly eligible tasks once the wave completes.
func (e *Executor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		eligible, dagByItem := e.collectEligible()
		if len(eligible) == 0 {
			if e.allDone() {
				return nil
			}
			// Nothing eligible but something still running elsewhere in
			// the wave (shouldn't happen with wave-synchronous dispatch,
			// but guards against a stalled dependency graph).
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Millisecond):
			}
			continue
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.poolSize)

		for _, entry := range eligible {
			entry := entry
			dag := dagByItem[entry.itemID]
			g.Go(func() error {
				e.runOne(gctx, dag, entry.itemID, entry.kind)
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}
	}
}

type eligibleEntry struct {
	itemID string
	kind   Kind
}

func (e *Executor) collectEligible() ([]eligibleEntry, map[string]*DAG) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []eligibleEntry
	byItem := make(map[string]*DAG, len(e.dags))
	for itemID, dag := range e.dags {
		byItem[itemID] = dag
		for _, task := range dag.Eligible() {
			out = append(out, eligibleEntry{itemID: itemID, kind: task.Kind})
		}
	}
	return out, byItem
}

func (e *Executor) allDone() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, dag := range e.dags {
		if !dag.Done() {
			return false
		}
	}
	return true
}

func (e *Executor) runOne(ctx context.Context, dag *DAG, itemID string, kind Kind) {
	if err := dag.MarkRunning(kind); err != nil {
		return
	}

	task, _ := dag.Get(kind)
	taskCtx := ctx
	var cancel context.CancelFunc
	if task != nil && task.Deadline > 0 {
		taskCtx, cancel = context.WithTimeout(ctx, task.Deadline)
		defer cancel()
	}

	if err := taskCtx.Err(); err != nil {
		_ = dag.MarkFailed(kind, err)
	} else {
		result, err := e.prober.Execute(taskCtx, itemID, kind)
		if err != nil {
			_ = dag.MarkFailed(kind, err)
		} else {
			_ = dag.MarkCompleted(kind, result)
		}
	}

	if e.observer != nil {
		settled, _ := dag.Get(kind)
		e.observer.TaskSettled(itemID, kind, settled)
	}
}
