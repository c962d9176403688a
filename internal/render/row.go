package render

import (
	"fmt"

	"github.com/worktrunk/wt/internal/listmodel"
	"github.com/worktrunk/wt/internal/repo"
)

// Cell renders one column's content for one item. Unknown fields render
// as a dim placeholder, never as zeros.
func Cell(kind listmodel.ColumnKind, it listmodel.ItemSnapshot, isLinked bool) string {
	switch kind {
	case listmodel.ColGutter:
		return Gutter(it.IsCurrent, it.IsDefault, isLinked)
	case listmodel.ColBranch:
		name := it.Branch
		if name == "" {
			name = it.Name
		}
		if it.UserMarker != "" {
			name += " " + StyleMarker.Render(it.UserMarker)
		}
		return name
	case listmodel.ColStatus:
		if it.Display.StatusSymbols == "" {
			return Placeholder()
		}
		return StatusSymbolStyle(it.Display.StatusSymbols).Render(it.Display.StatusSymbols)
	case listmodel.ColWorkingDiff:
		return diffCell(it.WorkingTreeDiff)
	case listmodel.ColAheadBehind:
		return aheadBehindCell(it)
	case listmodel.ColBranchDiff:
		return branchDiffCell(it.BranchDiff)
	case listmodel.ColPath:
		return it.Path
	case listmodel.ColUpstream:
		return upstreamCell(it.Upstream)
	case listmodel.ColCiStatus:
		return ciCell(it.CIStatus)
	case listmodel.ColCommit:
		return shortSHA(it.Head)
	case listmodel.ColAge:
		if it.Display.Age == "" {
			return Placeholder()
		}
		return it.Display.Age
	case listmodel.ColMessage:
		if it.CommitDetails == nil {
			return Placeholder()
		}
		return it.CommitDetails.Subject
	default:
		return ""
	}
}

func diffCell(d *listmodel.LineDiff) string {
	if d == nil {
		return Placeholder()
	}
	if d.IsEmpty() {
		return ""
	}
	return StyleAdded.Render(fmt.Sprintf("+%d", d.Added)) + " " + StyleDeleted.Render(fmt.Sprintf("-%d", d.Deleted))
}

func aheadBehindCell(it listmodel.ItemSnapshot) string {
	if !it.HasCounts {
		return Placeholder()
	}
	if it.Ahead == 0 && it.Behind == 0 {
		return ""
	}
	return fmt.Sprintf("↑%d ↓%d", it.Ahead, it.Behind)
}

func branchDiffCell(d *repo.DiffStats) string {
	if d == nil {
		return Placeholder()
	}
	if d.FilesChanged == 0 {
		return ""
	}
	return fmt.Sprintf("%d files ", d.FilesChanged) +
		StyleAdded.Render(fmt.Sprintf("+%d", d.Added)) + " " +
		StyleDeleted.Render(fmt.Sprintf("-%d", d.Deleted))
}

func upstreamCell(u *listmodel.UpstreamStatus) string {
	if u == nil {
		return Placeholder()
	}
	if !u.HasUpstream() {
		return ""
	}
	if u.Ahead == 0 && u.Behind == 0 {
		return u.Ref
	}
	return fmt.Sprintf("%s ↑%d ↓%d", u.Ref, u.Ahead, u.Behind)
}

func ciCell(s *repo.CIStatus) string {
	if s == nil {
		return Placeholder()
	}
	switch s.State {
	case repo.CISuccess:
		return StyleCISuccess.Render("✓")
	case repo.CIFailure:
		return StyleCIFailure.Render("✗")
	case repo.CIPending:
		return StyleCIPending.Render("●")
	default:
		return StyleCINone.Render("noci")
	}
}

func shortSHA(sha string) string {
	if len(sha) <= 7 {
		return sha
	}
	return sha[:7]
}
