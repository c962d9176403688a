package listmodel

import (
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/worktrunk/wt/internal/classify"
)

// symbolRule is one row of the status-symbol truth table. Rules are
// tried in order; the first match wins.
type symbolRule struct {
	match  func(integrated bool, reason classify.Reason, dirty bool) bool
	symbol string
}

var symbolTable = []symbolRule{
	{
		match:  func(integrated bool, reason classify.Reason, dirty bool) bool { return reason == classify.SameCommit && !dirty },
		symbol: "_",
	},
	{
		match:  func(integrated bool, reason classify.Reason, dirty bool) bool { return reason == classify.SameCommit && dirty },
		symbol: "–",
	},
	{
		match:  func(integrated bool, reason classify.Reason, dirty bool) bool { return integrated && dirty },
		symbol: "⊂±",
	},
	{
		match:  func(integrated bool, reason classify.Reason, dirty bool) bool { return integrated && !dirty },
		symbol: "⊂",
	},
	{
		match:  func(integrated bool, reason classify.Reason, dirty bool) bool { return !integrated && dirty },
		symbol: "±",
	},
}

// StatusSymbols derives the display glyph from the populated probe
// results plus the dirty-working-tree flag: a pure function of its
// inputs. hasIntegration false means the Integration task never
// settled (skipped/failed): render nothing rather than guessing.
func StatusSymbols(hasIntegration bool, reason classify.Reason, workingTreeDirty bool) string {
	if !hasIntegration {
		return ""
	}
	integrated := reason != classify.NotIntegrated
	for _, rule := range symbolTable {
		if rule.match(integrated, reason, workingTreeDirty) {
			return rule.symbol
		}
	}
	return ""
}

// Now returns the reference time for age bucketing: SOURCE_DATE_EPOCH
// if set (reproducibility hook for tests), otherwise wall clock.
func Now() time.Time {
	if v := os.Getenv("SOURCE_DATE_EPOCH"); v != "" {
		if secs, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return time.Unix(secs, 0).UTC()
		}
	}
	return time.Now()
}

// Age buckets a commit timestamp relative to now (just now, N minutes,
// N hours, ...), backed by humanize.RelTime rather than hand-rolled
// bucket boundaries.
func Age(commitTimestamp int64, now time.Time) string {
	if commitTimestamp == 0 {
		return ""
	}
	t := time.Unix(commitTimestamp, 0)
	if !t.Before(now) {
		return "just now"
	}
	rel := humanize.RelTime(t, now, "ago", "from now")
	if rel == "now" {
		return "just now"
	}
	return rel
}

// WorkingTreeDirty reports whether an item has uncommitted changes,
// treating an un-probed working tree as clean (placeholder, not a
// false positive).
func WorkingTreeDirty(it *Item) bool {
	return it.WorkingTreeDiff != nil && !it.WorkingTreeDiff.IsEmpty()
}

// Finalize computes Display for one item once every task has settled.
// Safe to call more than once; in practice it runs once per run, since
// the StatusSymbols task runs exactly once per item.
func Finalize(it *Item, now time.Time) {
	dirty := WorkingTreeDirty(it)
	symbols := StatusSymbols(it.HasIntegration, it.IntegrationReason, dirty)

	var age string
	if it.CommitDetails != nil {
		age = Age(it.CommitDetails.Timestamp, now)
	}

	it.SetDisplay(Display{StatusSymbols: symbols, Age: age})
}

// SortItems orders items current first, then the default-branch
// worktree, then by name (case-sensitive, stable).
func SortItems(items []*Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.IsCurrent != b.IsCurrent {
			return a.IsCurrent
		}
		if a.IsDefault != b.IsDefault {
			return a.IsDefault
		}
		return a.Name < b.Name
	})
}
