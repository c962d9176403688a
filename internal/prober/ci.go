package prober

import (
	"context"
	"strings"

	"github.com/worktrunk/wt/internal/listmodel"
	"github.com/worktrunk/wt/internal/repo"
)

// probeCIStatus fetches the item branch's CI state from the detected
// forge (GitHub or GitLab), behind FetchCIStatus's own retry and
// circuit-breaker wrapping, plus the branch's PR when the forge
// exposes one. Detached-HEAD items and unknown-forge repositories have
// nothing to fetch.
func probeCIStatus(ctx context.Context, r repo.Repository, it *listmodel.Item, target string) (any, error) {
	if it.Branch == "" {
		return nil, nil
	}
	if r.DetectHost(ctx) == repo.HostUnknown {
		return nil, nil
	}

	status, err := r.FetchCIStatus(ctx, it.Branch)
	if err != nil {
		return nil, err
	}
	it.SetCIStatus(status)

	if pr, err := r.FetchPRStatus(ctx, it.Branch); err == nil && pr != nil {
		it.SetPRStatus(listmodel.PRStatus{
			Number: pr.Number,
			Title:  pr.Title,
			State:  listmodel.PRState(strings.ToLower(pr.State)),
			URL:    pr.URL,
			Draft:  pr.Draft,
		})
	}
	return status, nil
}
