// Package listrun orchestrates one `wt list` collection run: it builds
// the skeleton items, wires each item's probe DAG,
// drives the scheduler's executor, and feeds settled tasks to the
// progressive renderer via the event bus.
package listrun

import (
	"time"

	"github.com/worktrunk/wt/internal/config"
	"github.com/worktrunk/wt/internal/repo"
	"github.com/worktrunk/wt/internal/scheduler"
)

// buildDAG declares one item's probe tasks and dependencies:
//
//	Skeleton ─┬─► WorkingTreeDiff
//	          ├─► UpstreamStatus ──► (none)
//	          ├─► AheadBehind ─────┐
//	          ├─► BranchDiff ──────┼─► Integration ──► StatusSymbols
//	          ├─► CommitDetails    │
//	          └─► CiStatus (opt) ──┘
//
// StatusSymbols also depends directly on WorkingTreeDiff and
// CommitDetails (not just through Integration), so the invariant —
// "StatusSymbols observes the final values of AheadBehind,
// BranchDiff, WorkingTreeDiff, CommitDetails" — holds even though the
// diagram only draws an edge from Integration.
func buildDAG(itemID string, cfg *config.EngineConfig, ciEnabled bool) *scheduler.DAG {
	dag := scheduler.NewDAG(itemID)

	add := func(kind scheduler.Kind, deps []scheduler.Kind, failMode scheduler.FailureMode) {
		_ = dag.AddTask(&scheduler.Task{
			Kind:        kind,
			DependsOn:   deps,
			Deadline:    deadlineFor(cfg, kind),
			FailureMode: failMode,
		})
	}

	add(scheduler.Skeleton, nil, scheduler.FailHard)
	add(scheduler.WorkingTreeDiff, []scheduler.Kind{scheduler.Skeleton}, scheduler.FailHard)
	add(scheduler.UpstreamStatus, []scheduler.Kind{scheduler.Skeleton}, scheduler.FailHard)
	add(scheduler.AheadBehind, []scheduler.Kind{scheduler.Skeleton}, scheduler.FailHard)
	add(scheduler.BranchDiff, []scheduler.Kind{scheduler.Skeleton}, scheduler.FailHard)
	add(scheduler.CommitDetails, []scheduler.Kind{scheduler.Skeleton}, scheduler.FailHard)
	// CiStatus is the DAG's one Optional, FailSoft task: a failed or
	// disabled CI fetch must not block Integration/StatusSymbols from
	// running, since the classifier never reads the CI value itself.
	_ = dag.AddTask(&scheduler.Task{
		Kind:        scheduler.CiStatus,
		DependsOn:   []scheduler.Kind{scheduler.Skeleton},
		Deadline:    deadlineFor(cfg, scheduler.CiStatus),
		Optional:    true,
		FailureMode: scheduler.FailSoft,
	})
	add(scheduler.Integration, []scheduler.Kind{scheduler.AheadBehind, scheduler.BranchDiff, scheduler.CiStatus}, scheduler.FailHard)
	add(scheduler.StatusSymbols, []scheduler.Kind{scheduler.Integration, scheduler.WorkingTreeDiff, scheduler.CommitDetails}, scheduler.FailHard)

	if !ciEnabled {
		dag.Disable(scheduler.CiStatus)
	}

	return dag
}

// deadlineFor resolves a task kind's timeout: an explicit per-kind
// override in cfg.TaskDeadlines, else cfg.DefaultTaskDeadline.
func deadlineFor(cfg *config.EngineConfig, kind scheduler.Kind) time.Duration {
	if cfg == nil {
		return 0
	}
	if v, ok := cfg.TaskDeadlines[kind.String()]; ok {
		return v
	}
	return cfg.DefaultTaskDeadline
}

// ciEnabledFor reports whether the CI-fetch task should run at all for
// this repository: there's no point scheduling (and budgeting a
// deadline for) a forge fetch when no forge remote was detected.
func ciEnabledFor(host repo.Host) bool {
	return host != repo.HostUnknown
}
