package prober

import (
	"context"

	"github.com/worktrunk/wt/internal/listmodel"
	"github.com/worktrunk/wt/internal/repo"
)

// probeUpstreamStatus resolves the item's remote-tracking branch and its
// ahead/behind counts relative to it. A branch with no configured
// upstream produces an empty UpstreamStatus rather than an error: no
// upstream is a valid, renderable state.
func probeUpstreamStatus(ctx context.Context, r repo.Repository, it *listmodel.Item, target string) (any, error) {
	if it.Branch == "" {
		return nil, nil
	}

	upstream, err := r.Branch(it.Branch).Upstream(ctx)
	if err != nil {
		return nil, err
	}
	if upstream == "" {
		u := listmodel.UpstreamStatus{}
		it.SetUpstream(u)
		return u, nil
	}

	ahead, behind, err := r.AheadBehind(ctx, upstream, it.Branch)
	if err != nil {
		return nil, err
	}
	u := listmodel.UpstreamStatus{Ref: upstream, Ahead: ahead, Behind: behind}
	it.SetUpstream(u)
	return u, nil
}
