// Package classify implements the cost-ordered cascade that decides
// whether a branch's content has already landed on a trunk target,
// even across squash or rebase rewrites.
package classify

import (
	"context"

	"github.com/worktrunk/wt/internal/repo"
)

// Reason names why a branch is considered integrated into its target.
// Zero value NotIntegrated means none of the cascade rules held.
type Reason int

const (
	NotIntegrated Reason = iota
	SameCommit
	Ancestor
	NoAddedChanges
	TreesMatch
	MergeAddsNothing
)

func (r Reason) String() string {
	switch r {
	case SameCommit:
		return "same_commit"
	case Ancestor:
		return "ancestor"
	case NoAddedChanges:
		return "no_added_changes"
	case TreesMatch:
		return "trees_match"
	case MergeAddsNothing:
		return "merge_adds_nothing"
	default:
		return "not_integrated"
	}
}

// IsIntegrated runs the five-rule cascade in cost order, returning the
// first rule that holds.
func IsIntegrated(ctx context.Context, r repo.Repository, branch, target string) (Reason, error) {
	branchHead, err := r.RevParse(ctx, branch)
	if err != nil {
		return NotIntegrated, err
	}
	targetHead, err := r.RevParse(ctx, target)
	if err != nil {
		return NotIntegrated, err
	}

	// 1. SameCommit: cheapest possible check, no subprocess beyond the
	// two rev-parses already done above.
	if branchHead != "" && branchHead == targetHead {
		return SameCommit, nil
	}

	// 2. Ancestor: branch-tip already reachable from target.
	if isAncestor, err := r.IsAncestor(ctx, branchHead, targetHead); err == nil && isAncestor {
		return Ancestor, nil
	}

	// 3. NoAddedChanges: three-dot diff reports zero files.
	if mb, err := r.MergeBase(ctx, target, branch); err == nil && mb != "" {
		if changed, err := r.ChangedFiles(ctx, mb, branchHead); err == nil && len(changed) == 0 {
			return NoAddedChanges, nil
		}
	}

	// 4. TreesMatch: different histories, identical tree contents.
	branchTree, err1 := r.TreeHash(ctx, branchHead)
	targetTree, err2 := r.TreeHash(ctx, targetHead)
	if err1 == nil && err2 == nil && branchTree != "" && branchTree == targetTree {
		return TreesMatch, nil
	}

	// 5. MergeAddsNothing: simulate the merge and compare resulting
	// trees, catching squash/rebase merges the cheaper rules miss.
	if mergedTree, err := r.MergeTreeWriteTree(ctx, targetHead, branchHead); err == nil && mergedTree != "" && mergedTree == targetTree {
		return MergeAddsNothing, nil
	}

	return NotIntegrated, nil
}

// DisplaySymbol maps a Reason (plus the dirty-worktree flag) to its
// status glyph.
func DisplaySymbol(reason Reason, dirty bool) string {
	if reason == SameCommit {
		if dirty {
			return "–"
		}
		return "_"
	}
	if reason == NotIntegrated {
		return ""
	}
	return "⊂"
}
