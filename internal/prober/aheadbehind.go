package prober

import (
	"context"

	"github.com/worktrunk/wt/internal/listmodel"
	"github.com/worktrunk/wt/internal/repo"
)

// probeAheadBehind counts an item's branch commits ahead of / behind the
// target trunk, skipped entirely when the item's own branch is the
// target (an item can't be ahead/behind itself).
func probeAheadBehind(ctx context.Context, r repo.Repository, it *listmodel.Item, target string) (any, error) {
	if it.Branch == "" || it.Branch == target {
		return nil, nil
	}

	ahead, behind, err := r.AheadBehind(ctx, target, it.Branch)
	if err != nil {
		return nil, err
	}
	it.SetCounts(ahead, behind)
	return repo.AheadBehind{Ahead: ahead, Behind: behind}, nil
}
