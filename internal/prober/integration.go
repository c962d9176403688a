package prober

import (
	"context"

	"github.com/worktrunk/wt/internal/classify"
	"github.com/worktrunk/wt/internal/listmodel"
	"github.com/worktrunk/wt/internal/repo"
)

// probeIntegration runs the cost-ordered integration cascade for the
// item's branch against the target trunk. The item's own branch (or the
// default-branch worktree) is trivially integrated into itself.
func probeIntegration(ctx context.Context, r repo.Repository, it *listmodel.Item, target string) (any, error) {
	if it.Branch == "" {
		return nil, nil
	}
	if it.Branch == target {
		it.SetIntegration(classify.SameCommit)
		return classify.SameCommit, nil
	}

	reason, err := classify.IsIntegrated(ctx, r, it.Branch, target)
	if err != nil {
		return nil, err
	}
	it.SetIntegration(reason)
	return reason, nil
}
