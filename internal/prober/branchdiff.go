package prober

import (
	"context"

	"github.com/worktrunk/wt/internal/listmodel"
	"github.com/worktrunk/wt/internal/repo"
)

// probeBranchDiff sums committed line changes between the target trunk
// and the item's branch. This is the heavy-ops-gated `diff --numstat`
// path (internal/repo.BranchDiffStats); when the BranchDiff task
// completes for no item at all, the column is hidden entirely rather
// than rendering a placeholder for every row.
func probeBranchDiff(ctx context.Context, r repo.Repository, it *listmodel.Item, target string) (any, error) {
	if it.Branch == "" || it.Branch == target {
		return nil, nil
	}

	stats, err := r.BranchDiffStats(ctx, target, it.Branch)
	if err != nil {
		return nil, err
	}
	it.SetBranchDiff(stats)
	return stats, nil
}
