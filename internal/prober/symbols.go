package prober

import (
	"context"

	"github.com/worktrunk/wt/internal/listmodel"
	"github.com/worktrunk/wt/internal/repo"
)

// probeStatusSymbols is the DAG's terminal task: by the time it's
// eligible, every task it depends on (AheadBehind, BranchDiff,
// WorkingTreeDiff, CommitDetails, Integration) has settled, so
// listmodel.Finalize can safely derive the display-only fields once.
func probeStatusSymbols(ctx context.Context, r repo.Repository, it *listmodel.Item, target string) (any, error) {
	listmodel.Finalize(it, listmodel.Now())
	return it.Display, nil
}
