// Package listmodel holds the per-item accumulator that probe tasks
// mutate and the renderer reads: the enriched list item plus the
// finalization step that derives display-only fields from it.
package listmodel

import (
	"sync"

	"github.com/worktrunk/wt/internal/classify"
	"github.com/worktrunk/wt/internal/repo"
)

// CommitDetails is the `show -s --format=%ct%n%s HEAD` result.
type CommitDetails struct {
	Timestamp int64
	Subject   string
}

// LineDiff is an added/deleted line-count pair.
type LineDiff struct {
	Added   int
	Deleted int
}

// IsEmpty reports whether the diff touched nothing.
func (d LineDiff) IsEmpty() bool { return d.Added == 0 && d.Deleted == 0 }

// UpstreamStatus describes a branch's remote-tracking state.
type UpstreamStatus struct {
	Ref    string
	Ahead  int
	Behind int
}

// HasUpstream reports whether a tracking ref was found.
func (u UpstreamStatus) HasUpstream() bool { return u.Ref != "" }

// PRState is the coarse state of a pull/merge request.
type PRState string

const (
	PROpen   PRState = "open"
	PRMerged PRState = "merged"
	PRClosed PRState = "closed"
)

// PRStatus is the pull-request summary attached to an item.
type PRStatus struct {
	Number int
	Title  string
	State  PRState
	URL    string
	Draft  bool
}

// Display holds fields computed once, at finalization, from the rest of
// the item: status glyphs and age bucket. Populated only by Finalize
// (internal/listmodel/aggregate.go), never directly by a probe's own
// result.
type Display struct {
	StatusSymbols string
	Age           string
}

// Item is the per-worktree accumulator: the skeleton fields known before
// any probe runs, plus every probe's result, mutated only by the thread
// that owns this item's DAG and read by the renderer through Snapshot.
type Item struct {
	mu sync.Mutex

	// Skeleton, from repo.Worktree.
	ID       string // stable identity: the worktree path
	Path     string
	Name     string
	Head     string
	Branch   string
	IsDefault bool
	Locked    *string
	Prunable  *string

	IsCurrent bool

	// Probe results. Each field is populated by exactly one task kind
	// (through the matching Set* method below); zero value means
	// "not yet populated" and the renderer shows a placeholder for it.
	CommitDetails     *CommitDetails
	Ahead, Behind     int
	HasCounts         bool
	WorkingTreeDiff   *LineDiff
	BranchDiff        *repo.DiffStats
	Upstream          *UpstreamStatus
	CIStatus          *repo.CIStatus
	PRStatus          *PRStatus
	IntegrationReason classify.Reason
	HasIntegration    bool
	UserMarker        string

	Display Display
}

// NewItem builds an Item from a skeleton worktree record.
func NewItem(w repo.Worktree, name string, isDefault, isCurrent bool) *Item {
	return &Item{
		ID:        w.Path,
		Path:      w.Path,
		Name:      name,
		Head:      w.Head,
		Branch:    w.Branch,
		IsDefault: isDefault,
		Locked:    w.Locked,
		Prunable:  w.Prunable,
		IsCurrent: isCurrent,
	}
}

// Detached reports whether this item has no associated branch.
func (it *Item) Detached() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.Branch == ""
}

// SetCommitDetails records the CommitDetails probe's result.
func (it *Item) SetCommitDetails(d CommitDetails) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.CommitDetails = &d
}

// SetCounts records the AheadBehind probe's result.
func (it *Item) SetCounts(ahead, behind int) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.Ahead, it.Behind = ahead, behind
	it.HasCounts = true
}

// SetWorkingTreeDiff records the WorkingTreeDiff probe's result.
func (it *Item) SetWorkingTreeDiff(d LineDiff) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.WorkingTreeDiff = &d
}

// SetBranchDiff records the BranchDiff probe's result.
func (it *Item) SetBranchDiff(d repo.DiffStats) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.BranchDiff = &d
}

// SetUpstream records the UpstreamStatus probe's result.
func (it *Item) SetUpstream(u UpstreamStatus) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.Upstream = &u
}

// SetCIStatus records the CiStatus probe's result.
func (it *Item) SetCIStatus(s repo.CIStatus) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.CIStatus = &s
}

// SetPRStatus records the optional PR-fetch result.
func (it *Item) SetPRStatus(p PRStatus) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.PRStatus = &p
}

// SetIntegration records the Integration task's cascade result.
func (it *Item) SetIntegration(reason classify.Reason) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.IntegrationReason = reason
	it.HasIntegration = true
}

// SetUserMarker records the worktrunk.marker.<branch> config value.
func (it *Item) SetUserMarker(marker string) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.UserMarker = marker
}

// SetDisplay records the finalization step's derived fields.
func (it *Item) SetDisplay(d Display) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.Display = d
}

// ItemSnapshot is a lock-free copy of an Item's fields, safe for a reader
// (the renderer, a test) to inspect without racing the owning task
// goroutine and without copying the Item's mutex.
type ItemSnapshot struct {
	ID        string
	Path      string
	Name      string
	Head      string
	Branch    string
	IsDefault bool
	Locked    *string
	Prunable  *string

	IsCurrent bool

	CommitDetails     *CommitDetails
	Ahead, Behind     int
	HasCounts         bool
	WorkingTreeDiff   *LineDiff
	BranchDiff        *repo.DiffStats
	Upstream          *UpstreamStatus
	CIStatus          *repo.CIStatus
	PRStatus          *PRStatus
	IntegrationReason classify.Reason
	HasIntegration    bool
	UserMarker        string

	Display Display
}

// Snapshot returns a lock-free copy of the item's fields, safe for a
// reader (the renderer) to inspect without racing the owning task
// goroutine.
func (it *Item) Snapshot() ItemSnapshot {
	it.mu.Lock()
	defer it.mu.Unlock()
	return ItemSnapshot{
		ID:                it.ID,
		Path:              it.Path,
		Name:              it.Name,
		Head:              it.Head,
		Branch:            it.Branch,
		IsDefault:         it.IsDefault,
		Locked:            it.Locked,
		Prunable:          it.Prunable,
		IsCurrent:         it.IsCurrent,
		CommitDetails:     it.CommitDetails,
		Ahead:             it.Ahead,
		Behind:            it.Behind,
		HasCounts:         it.HasCounts,
		WorkingTreeDiff:   it.WorkingTreeDiff,
		BranchDiff:        it.BranchDiff,
		Upstream:          it.Upstream,
		CIStatus:          it.CIStatus,
		PRStatus:          it.PRStatus,
		IntegrationReason: it.IntegrationReason,
		HasIntegration:    it.HasIntegration,
		UserMarker:        it.UserMarker,
		Display:           it.Display,
	}
}
