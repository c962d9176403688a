package listmodel

import "github.com/worktrunk/wt/internal/scheduler"

// ColumnKind identifies a column the renderer can draw, in registry
// order.
type ColumnKind int

const (
	ColGutter ColumnKind = iota
	ColBranch
	ColStatus
	ColWorkingDiff
	ColAheadBehind
	ColBranchDiff
	ColPath
	ColUpstream
	ColCiStatus
	ColCommit
	ColAge
	ColMessage
)

func (k ColumnKind) String() string {
	switch k {
	case ColGutter:
		return "gutter"
	case ColBranch:
		return "branch"
	case ColStatus:
		return "status"
	case ColWorkingDiff:
		return "working_diff"
	case ColAheadBehind:
		return "ahead_behind"
	case ColBranchDiff:
		return "branch_diff"
	case ColPath:
		return "path"
	case ColUpstream:
		return "upstream"
	case ColCiStatus:
		return "ci_status"
	case ColCommit:
		return "commit"
	case ColAge:
		return "age"
	case ColMessage:
		return "message"
	default:
		return "unknown"
	}
}

// ColumnSpec is the static, registry-order metadata for one column.
// basePriority is lower-is-more-important: inclusion under a width
// budget proceeds in priority order.
type ColumnSpec struct {
	Kind         ColumnKind
	Header       string
	BasePriority int
	// RequiresTask, if set, means the column is only shown when at
	// least one item completed that task kind; if every item either
	// disabled or failed it, the column is filtered out entirely.
	RequiresTask *scheduler.Kind
}

func taskKind(k scheduler.Kind) *scheduler.Kind { return &k }

// Registry is the static column list, in display order. The branch
// column (index 1) is never elided.
var Registry = []ColumnSpec{
	{Kind: ColGutter, Header: "", BasePriority: 0},
	{Kind: ColBranch, Header: "BRANCH", BasePriority: 1},
	{Kind: ColStatus, Header: "", BasePriority: 2},
	{Kind: ColWorkingDiff, Header: "DIFF", BasePriority: 3},
	{Kind: ColAheadBehind, Header: "MAIN", BasePriority: 4},
	{Kind: ColBranchDiff, Header: "vs MAIN", BasePriority: 5, RequiresTask: taskKind(scheduler.BranchDiff)},
	{Kind: ColPath, Header: "PATH", BasePriority: 6},
	{Kind: ColUpstream, Header: "UPSTREAM", BasePriority: 7},
	{Kind: ColCiStatus, Header: "CI", BasePriority: 8, RequiresTask: taskKind(scheduler.CiStatus)},
	{Kind: ColCommit, Header: "COMMIT", BasePriority: 9},
	{Kind: ColAge, Header: "AGE", BasePriority: 10},
	{Kind: ColMessage, Header: "MESSAGE", BasePriority: 11},
}

// TaskOutcome reports, per item, whether a task kind ever completed so
// Select can filter columns whose required task failed or was disabled
// for every item.
type TaskOutcome func(kind scheduler.Kind) (completedAnywhere bool)

// WidthFunc measures a column's desired content width given its header
// and every rendered cell in that column; callers supply an
// escape-aware, unicode-width-accounting implementation
// (internal/render.VisibleWidth).
type WidthFunc func(header string, cells []string) int

// Select filters Registry down to the columns that fit termWidth,
// honoring task gating and priority-ordered elision. The branch column
// is always included, though it may later be truncated by the renderer.
func Select(termWidth int, outcome TaskOutcome, widthOf WidthFunc, cellsByColumn map[ColumnKind][]string) []ColumnSpec {
	candidates := make([]ColumnSpec, 0, len(Registry))
	for _, spec := range Registry {
		if spec.RequiresTask != nil && outcome != nil && !outcome(*spec.RequiresTask) {
			continue
		}
		candidates = append(candidates, spec)
	}

	desired := make(map[ColumnKind]int, len(candidates))
	for _, spec := range candidates {
		desired[spec.Kind] = widthOf(spec.Header, cellsByColumn[spec.Kind])
	}

	ordered := append([]ColumnSpec(nil), candidates...)
	sortByPriority(ordered)

	const padding = 1
	budget := termWidth
	var selected []ColumnSpec
	used := 0
	for _, spec := range ordered {
		w := desired[spec.Kind]
		cost := w
		if used > 0 {
			cost += padding
		}
		if spec.Kind == ColBranch {
			// Branch is mandatory: always included, truncated if need be.
			selected = append(selected, spec)
			used += cost
			continue
		}
		if used+cost > budget {
			continue
		}
		selected = append(selected, spec)
		used += cost
	}

	return restoreRegistryOrder(selected)
}

func sortByPriority(specs []ColumnSpec) {
	for i := 1; i < len(specs); i++ {
		for j := i; j > 0 && specs[j].BasePriority < specs[j-1].BasePriority; j-- {
			specs[j], specs[j-1] = specs[j-1], specs[j]
		}
	}
}

func restoreRegistryOrder(selected []ColumnSpec) []ColumnSpec {
	include := make(map[ColumnKind]bool, len(selected))
	for _, s := range selected {
		include[s.Kind] = true
	}
	out := make([]ColumnSpec, 0, len(selected))
	for _, spec := range Registry {
		if include[spec.Kind] {
			out = append(out, spec)
		}
	}
	return out
}
