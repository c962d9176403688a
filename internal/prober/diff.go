package prober

import (
	"context"

	"github.com/worktrunk/wt/internal/listmodel"
	"github.com/worktrunk/wt/internal/repo"
)

// probeWorkingTreeDiff populates an item's uncommitted-change summary,
// run against the item's own worktree path since each worktree carries
// its own index and working directory.
func probeWorkingTreeDiff(ctx context.Context, r repo.Repository, it *listmodel.Item, target string) (any, error) {
	stats, err := r.WorkingTreeDiffStats(ctx, it.Path)
	if err != nil {
		return nil, err
	}
	d := listmodel.LineDiff{Added: stats.Added, Deleted: stats.Deleted}
	it.SetWorkingTreeDiff(d)
	return d, nil
}
