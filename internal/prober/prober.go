// Package prober wires internal/repo and internal/classify into
// scheduler.Prober: one function per task kind, each reading the probe
// results it depends on off the shared listmodel.Item and writing its
// own result back before the scheduler marks the task complete.
package prober

import (
	"context"
	"fmt"
	"sync"

	"github.com/worktrunk/wt/internal/listmodel"
	"github.com/worktrunk/wt/internal/repo"
	"github.com/worktrunk/wt/internal/scheduler"
)

// probeFunc runs one task kind for one item.
type probeFunc func(ctx context.Context, r repo.Repository, it *listmodel.Item, target string) (any, error)

// Registry implements scheduler.Prober by dispatching on Kind.
type Registry struct {
	repo   repo.Repository
	target string // trunk branch every item's status is computed against

	mu    sync.RWMutex
	items map[string]*listmodel.Item

	funcs map[scheduler.Kind]probeFunc
}

// NewRegistry builds a Registry bound to a single Repository and target
// trunk branch (the comparison target, usually the repository's
// default branch).
func NewRegistry(r repo.Repository, target string) *Registry {
	reg := &Registry{
		repo:   r,
		target: target,
		items:  make(map[string]*listmodel.Item),
	}
	reg.funcs = map[scheduler.Kind]probeFunc{
		scheduler.Skeleton:        probeSkeleton,
		scheduler.WorkingTreeDiff: probeWorkingTreeDiff,
		scheduler.UpstreamStatus:  probeUpstreamStatus,
		scheduler.AheadBehind:     probeAheadBehind,
		scheduler.BranchDiff:      probeBranchDiff,
		scheduler.CommitDetails:   probeCommitDetails,
		scheduler.CiStatus:        probeCIStatus,
		scheduler.Integration:     probeIntegration,
		scheduler.StatusSymbols:   probeStatusSymbols,
	}
	return reg
}

// Add registers an item so its ID can be resolved by Execute.
func (reg *Registry) Add(it *listmodel.Item) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.items[it.ID] = it
}

// Execute implements scheduler.Prober.
func (reg *Registry) Execute(ctx context.Context, itemID string, kind scheduler.Kind) (any, error) {
	reg.mu.RLock()
	it, ok := reg.items[itemID]
	reg.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("prober: unknown item %q", itemID)
	}

	fn, ok := reg.funcs[kind]
	if !ok {
		return nil, fmt.Errorf("prober: no probe registered for %s", kind)
	}
	return fn(ctx, reg.repo, it, reg.target)
}
