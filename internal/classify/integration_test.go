package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/worktrunk/wt/internal/repo"
)

// fakeRepo implements repo.Repository with scripted responses, letting
// each cascade rule be exercised in isolation without a real git
// checkout.
type fakeRepo struct {
	repo.Repository // embed to satisfy the interface; unimplemented methods panic if called

	revs        map[string]string // branch/target name -> head sha
	isAncestor  bool
	mergeBase   string
	changedFiles []string
	trees       map[string]string // sha -> tree sha
	mergedTree  string
}

func (f *fakeRepo) RevParse(ctx context.Context, ref string) (string, error) {
	sha, ok := f.revs[ref]
	if !ok {
		return "", errors.New("unknown ref")
	}
	return sha, nil
}

func (f *fakeRepo) IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error) {
	return f.isAncestor, nil
}

func (f *fakeRepo) MergeBase(ctx context.Context, a, b string) (string, error) {
	return f.mergeBase, nil
}

func (f *fakeRepo) ChangedFiles(ctx context.Context, base, head string) ([]string, error) {
	return f.changedFiles, nil
}

func (f *fakeRepo) TreeHash(ctx context.Context, rev string) (string, error) {
	return f.trees[rev], nil
}

func (f *fakeRepo) MergeTreeWriteTree(ctx context.Context, base, head string) (string, error) {
	return f.mergedTree, nil
}

func TestIsIntegrated_SameCommit(t *testing.T) {
	f := &fakeRepo{revs: map[string]string{"feat": "aaa", "main": "aaa"}}
	reason, err := IsIntegrated(context.Background(), f, "feat", "main")
	if err != nil {
		t.Fatalf("IsIntegrated: %v", err)
	}
	if reason != SameCommit {
		t.Errorf("reason = %v, want SameCommit", reason)
	}
}

func TestIsIntegrated_Ancestor(t *testing.T) {
	f := &fakeRepo{
		revs:       map[string]string{"feat": "aaa", "main": "bbb"},
		isAncestor: true,
	}
	reason, err := IsIntegrated(context.Background(), f, "feat", "main")
	if err != nil {
		t.Fatalf("IsIntegrated: %v", err)
	}
	if reason != Ancestor {
		t.Errorf("reason = %v, want Ancestor", reason)
	}
}

func TestIsIntegrated_NoAddedChanges(t *testing.T) {
	f := &fakeRepo{
		revs:         map[string]string{"feat": "aaa", "main": "bbb"},
		isAncestor:   false,
		mergeBase:    "ccc",
		changedFiles: nil,
		trees:        map[string]string{"aaa": "t1", "bbb": "t2"},
	}
	reason, err := IsIntegrated(context.Background(), f, "feat", "main")
	if err != nil {
		t.Fatalf("IsIntegrated: %v", err)
	}
	if reason != NoAddedChanges {
		t.Errorf("reason = %v, want NoAddedChanges", reason)
	}
}

func TestIsIntegrated_TreesMatch(t *testing.T) {
	f := &fakeRepo{
		revs:         map[string]string{"feat": "aaa", "main": "bbb"},
		isAncestor:   false,
		mergeBase:    "ccc",
		changedFiles: []string{"x.txt"},
		trees:        map[string]string{"aaa": "same-tree", "bbb": "same-tree"},
	}
	reason, err := IsIntegrated(context.Background(), f, "feat", "main")
	if err != nil {
		t.Fatalf("IsIntegrated: %v", err)
	}
	if reason != TreesMatch {
		t.Errorf("reason = %v, want TreesMatch", reason)
	}
}

func TestIsIntegrated_MergeAddsNothing(t *testing.T) {
	f := &fakeRepo{
		revs:         map[string]string{"feat": "aaa", "main": "bbb"},
		isAncestor:   false,
		mergeBase:    "ccc",
		changedFiles: []string{"x.txt"},
		trees:        map[string]string{"aaa": "t1", "bbb": "t2"},
		mergedTree:   "t2",
	}
	reason, err := IsIntegrated(context.Background(), f, "feat", "main")
	if err != nil {
		t.Fatalf("IsIntegrated: %v", err)
	}
	if reason != MergeAddsNothing {
		t.Errorf("reason = %v, want MergeAddsNothing", reason)
	}
}

func TestIsIntegrated_NotIntegrated(t *testing.T) {
	f := &fakeRepo{
		revs:         map[string]string{"feat": "aaa", "main": "bbb"},
		isAncestor:   false,
		mergeBase:    "ccc",
		changedFiles: []string{"x.txt"},
		trees:        map[string]string{"aaa": "t1", "bbb": "t2"},
		mergedTree:   "t3",
	}
	reason, err := IsIntegrated(context.Background(), f, "feat", "main")
	if err != nil {
		t.Fatalf("IsIntegrated: %v", err)
	}
	if reason != NotIntegrated {
		t.Errorf("reason = %v, want NotIntegrated", reason)
	}
}

func TestDisplaySymbol(t *testing.T) {
	tests := []struct {
		reason Reason
		dirty  bool
		want   string
	}{
		{SameCommit, false, "_"},
		{SameCommit, true, "–"},
		{Ancestor, false, "⊂"},
		{MergeAddsNothing, false, "⊂"},
		{NotIntegrated, false, ""},
	}
	for _, tt := range tests {
		if got := DisplaySymbol(tt.reason, tt.dirty); got != tt.want {
			t.Errorf("DisplaySymbol(%v, %v) = %q, want %q", tt.reason, tt.dirty, got, tt.want)
		}
	}
}

func TestReasonString(t *testing.T) {
	tests := map[Reason]string{
		SameCommit:       "same_commit",
		Ancestor:         "ancestor",
		NoAddedChanges:   "no_added_changes",
		TreesMatch:       "trees_match",
		MergeAddsNothing: "merge_adds_nothing",
		NotIntegrated:    "not_integrated",
	}
	for reason, want := range tests {
		if got := reason.String(); got != want {
			t.Errorf("Reason(%d).String() = %q, want %q", reason, got, want)
		}
	}
}
