package prober

import (
	"context"

	"github.com/worktrunk/wt/internal/listmodel"
	"github.com/worktrunk/wt/internal/repo"
)

// probeSkeleton has no work to do: the item's skeleton fields (path,
// name, head, branch) are populated by listmodel.NewItem straight from
// repo.ListWorktrees before the DAG runs. The task exists purely as the
// root dependency every other probe waits on.
func probeSkeleton(ctx context.Context, r repo.Repository, it *listmodel.Item, target string) (any, error) {
	return nil, nil
}
