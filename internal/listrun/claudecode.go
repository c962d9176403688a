package listrun

import (
	"fmt"
	"io"

	"github.com/worktrunk/wt/internal/listmodel"
)

// writeClaudeCode renders one compact line per item: `branch  status
// ±working  commits  upstream  ci`. This is the same field order as the
// single-line status format meant for prompts and editor integrations,
// just emitted for every worktree instead of only the current one.
func writeClaudeCode(w io.Writer, items []listmodel.ItemSnapshot) error {
	for _, it := range items {
		if _, err := fmt.Fprintln(w, claudeCodeLine(it)); err != nil {
			return err
		}
	}
	return nil
}

func claudeCodeLine(it listmodel.ItemSnapshot) string {
	branch := it.Branch
	if branch == "" {
		branch = it.Name
	}

	working := "±0/0"
	if it.WorkingTreeDiff != nil {
		working = fmt.Sprintf("+%d/-%d", it.WorkingTreeDiff.Added, it.WorkingTreeDiff.Deleted)
	}

	commits := "0/0"
	if it.HasCounts {
		commits = fmt.Sprintf("%d/%d", it.Ahead, it.Behind)
	}

	upstream := "-"
	if it.Upstream != nil && it.Upstream.HasUpstream() {
		upstream = it.Upstream.Ref
	}

	ci := "-"
	if it.CIStatus != nil {
		ci = string(it.CIStatus.State)
	}

	return fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%s", branch, it.Display.StatusSymbols, working, commits, upstream, ci)
}
