package listrun

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/worktrunk/wt/internal/classify"
	"github.com/worktrunk/wt/internal/config"
	"github.com/worktrunk/wt/internal/events"
	"github.com/worktrunk/wt/internal/listmodel"
	"github.com/worktrunk/wt/internal/prober"
	"github.com/worktrunk/wt/internal/procexec"
	"github.com/worktrunk/wt/internal/render"
	"github.com/worktrunk/wt/internal/repo"
	"github.com/worktrunk/wt/internal/scheduler"
	"github.com/worktrunk/wt/internal/tracelog"
)

const avgTasksPerItem = 9 // Skeleton..StatusSymbols

// Options mirrors the `wt list` invocation surface.
type Options struct {
	Format      string // "table", "json", or "claude-code"
	Full        bool
	Branches    bool
	Remotes     bool
	Progressive bool // in-place skeleton rendering; off forces one final print
	Debug       bool // WT_LIST_DEBUG=1: per-task timing summary to stderr
	Sequential  bool // WT_SEQUENTIAL=1: force worker pool size 1
}

// Run executes one full `wt list` collection: opens the workspace,
// builds the skeleton, runs every item's probe DAG to completion, and
// writes the resulting table (or JSON) to stdout/stderr. Returns the
// process exit code (0 or 1) — 130 on interrupt
// is the caller's responsibility, since that requires catching the
// signal above this function (see cmd/wt/main.go).
func Run(ctx context.Context, cwd string, opts Options, procs *procexec.ProcessManager, stdout, stderr io.Writer) int {
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(stderr, "wt: loading config: %v\n", err)
		return 1
	}

	probeRunner := procexec.NewRunner(cfg.HeavyOpsPermits, procs, nil)
	r, err := repo.Open(ctx, cwd, probeRunner)
	if err != nil {
		fmt.Fprintf(stderr, "wt: %v\n", err)
		return 1
	}

	var cmdLog *tracelog.CommandLog
	logDir := ""
	if commonDir, cerr := r.GitCommonDir(ctx); cerr == nil {
		logDir = filepath.Join(commonDir, "wt-logs")
		cmdLog = tracelog.NewCommandLog(logDir, "list")
		defer cmdLog.Close()
		if cfg.TraceEnabled() {
			probeRunner = procexec.NewRunner(cfg.HeavyOpsPermits, procs, func(ev procexec.TraceEvent) {
				logCommand(cmdLog, ev)
			})
			r, err = repo.Open(ctx, cwd, probeRunner)
			if err != nil {
				fmt.Fprintf(stderr, "wt: %v\n", err)
				return 1
			}
		}
	}

	target := cfg.TargetBranch
	if target == "" {
		target, err = r.DefaultBranch(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "wt: %v\n", err)
			return 1
		}
	}

	worktrees, err := r.ListWorktrees(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "wt: %v\n", err)
		if logDir != "" {
			if path, derr := tracelog.WriteDiagnostic(ctx, logDir, r, probeRunner, err); derr == nil {
				fmt.Fprintf(stderr, "wt: diagnostic bundle written to %s\n", path)
			}
		}
		return 1
	}

	// One for-each-ref invocation seeds the ahead/behind cache for every
	// local branch, so the per-item AheadBehind probes are cache hits on
	// git >= 2.36 (and fall back to per-branch rev-list pairs elsewhere).
	_, _ = r.BatchAheadBehind(ctx, target)

	items, linked := buildItems(worktrees, cwd, target)
	if len(items) == 0 {
		fmt.Fprintln(stderr, "wt: no worktrees found")
		return 1
	}

	ciEnabled := ciEnabledFor(r.DetectHost(ctx))

	reg := prober.NewRegistry(r, target)
	itemByID := make(map[string]*listmodel.Item, len(items))
	for _, it := range items {
		readUserMarker(ctx, r, it)
		reg.Add(it)
		itemByID[it.ID] = it
	}

	var timingStore tracelog.Store
	runID := ""
	if opts.Debug && logDir != "" {
		if s, serr := tracelog.NewSQLiteStore(ctx, filepath.Join(logDir, "runs.db")); serr == nil {
			timingStore = s
			runID = uuid.NewString()
			defer s.Close()
			_ = s.StartRun(ctx, runID, cwd, target, len(items))
		}
	}

	var execProber scheduler.Prober = reg
	if timingStore != nil {
		execProber = &timingProber{
			next: reg,
			onDone: func(itemID string, kind scheduler.Kind, dur time.Duration, err error) {
				recordProbeTiming(ctx, timingStore, runID, itemID, kind, dur, err)
			},
		}
	}

	bus := events.NewEventBus()
	defer bus.Close()

	completed := newOutcomeTracker()
	observer := scheduler.ObserverFunc(func(itemID string, kind scheduler.Kind, task *scheduler.Task) {
		completed.record(kind, task.Status == scheduler.Completed)
		bus.Publish(events.TopicRow, events.RowChanged{Item: itemID, Kind: kind, Status: task.Status, Timestamp: wallNow()})
	})

	executor := scheduler.NewExecutor(execProber, observer, poolSize(opts, cfg, len(items)))
	for _, it := range items {
		executor.Add(buildDAG(it.ID, cfg, ciEnabled), it.ID)
	}

	termWidth := render.TerminalWidth()
	if opts.Full {
		termWidth *= 2
	}

	order := make([]*listmodel.Item, len(items))
	copy(order, items)
	listmodel.SortItems(order)
	rowIndex := make(map[string]int, len(order))
	for i, it := range order {
		rowIndex[it.ID] = i
	}

	initialSnapshots := orderedSnapshots(order)
	columns := render.BuildColumns(termWidth, initialSnapshots, linked, completed.outcomeFunc())
	header := render.BuildHeader(columns)
	rows := make([]string, len(order))
	for i, snap := range initialSnapshots {
		rows[i] = render.BuildRow(columns, snap, linked[snap.ID])
	}

	tasksPerItem := avgTasksPerItem
	if !ciEnabled {
		// A disabled CiStatus settles without an observer event; leave it
		// out of the footer's denominator so "N/M probes" can reach M.
		tasksPerItem--
	}
	totalTasks := len(order) * tasksPerItem
	spin := render.NewSpinner()
	table := render.NewTable(stderr, header, rows, render.Footer(spin.Next(), 0, totalTasks, ""), termWidth, opts.Progressive)

	start := time.Now()
	var doneTasks int
	var mu sync.Mutex
	rowCh := bus.Subscribe(events.TopicRow, 256)
	renderDone := make(chan struct{})
	go func() {
		defer close(renderDone)
		for ev := range rowCh {
			// Coalesce: drain whatever else is already buffered so a
			// burst of task completions repaints each affected row once
			// instead of once per event.
			batch := []events.Event{ev}
		drain:
			for {
				select {
				case next, ok := <-rowCh:
					if !ok {
						break drain
					}
					batch = append(batch, next)
				default:
					break drain
				}
			}

			changed := make(map[string]bool, len(batch))
			settled := 0
			for _, e := range batch {
				rc, ok := e.(events.RowChanged)
				if !ok {
					continue
				}
				settled++
				changed[rc.Item] = true
			}
			if settled == 0 {
				continue
			}

			mu.Lock()
			doneTasks += settled
			done := doneTasks
			mu.Unlock()

			for itemID := range changed {
				idx, ok := rowIndex[itemID]
				if !ok {
					continue
				}
				snap := itemByID[itemID].Snapshot()
				table.UpdateRow(idx, render.BuildRow(columns, snap, linked[snap.ID]))
			}
			table.UpdateFooter(render.Footer(spin.Next(), done, totalTasks, ""))
		}
	}()

	runErr := executor.Run(ctx)
	totalDuration := time.Since(start)

	if timingStore != nil {
		_ = timingStore.FinishRun(ctx, runID, totalDuration)
	}

	bus.Publish(events.TopicRun, events.RunComplete{ItemCount: len(order), Duration: totalDuration, Timestamp: wallNow()})
	bus.Close()
	<-renderDone

	finalSnapshots := orderedSnapshots(order)
	summary := summaryLine(finalSnapshots)

	if table.IsTTY() {
		table.FinalizeTTY(summary)
		fmt.Fprintln(stdout)
	} else {
		finalCols := render.BuildColumns(termWidth, finalSnapshots, linked, completed.outcomeFunc())
		lines := make([]string, 0, len(finalSnapshots)+3)
		lines = append(lines, render.BuildHeader(finalCols))
		for _, s := range finalSnapshots {
			lines = append(lines, render.BuildRow(finalCols, s, linked[s.ID]))
		}
		lines = append(lines, "", summary)
		table.FinalizeNonTTY(lines)
	}

	switch opts.Format {
	case "json":
		if err := writeJSON(stdout, finalSnapshots); err != nil {
			fmt.Fprintf(stderr, "wt: writing json: %v\n", err)
			return 1
		}
	case "claude-code":
		if err := writeClaudeCode(stdout, finalSnapshots); err != nil {
			fmt.Fprintf(stderr, "wt: writing claude-code output: %v\n", err)
			return 1
		}
	}

	if opts.Debug {
		var timings []tracelog.ProbeTiming
		if timingStore != nil {
			timings, _ = timingStore.Summary(ctx, runID)
		}
		writeDebugSummary(stderr, finalSnapshots, totalDuration, timings)
	}

	if runErr != nil {
		fmt.Fprintf(stderr, "wt: %v\n", runErr)
		return 1
	}
	return 0
}

func summaryLine(items []listmodel.ItemSnapshot) string {
	integrated := 0
	for _, s := range items {
		if s.HasIntegration && s.IntegrationReason != classify.NotIntegrated {
			integrated++
		}
	}
	return fmt.Sprintf("%d worktrees · %d integrated", len(items), integrated)
}

func logCommand(c *tracelog.CommandLog, ev procexec.TraceEvent) {
	if c == nil {
		return
	}
	code := ev.ExitCode
	dur := ev.Duration
	label := "probe:" + ev.Program
	cmdline := ev.Program + " " + strings.Join(ev.Args, " ")
	c.Log(label, cmdline, &code, &dur)
}

func poolSize(opts Options, cfg *config.EngineConfig, itemCount int) int {
	if opts.Sequential {
		return 1
	}
	if cfg != nil && cfg.WorkerPoolSize > 0 {
		return cfg.WorkerPoolSize
	}
	return scheduler.PoolSize(itemCount, avgTasksPerItem)
}

func wallNow() time.Time { return time.Now() }

func buildItems(worktrees []repo.Worktree, cwd, target string) ([]*listmodel.Item, map[string]bool) {
	var items []*listmodel.Item
	for _, w := range worktrees {
		if w.Bare {
			continue
		}
		name := w.Branch
		if name == "" {
			name = filepath.Base(w.Path)
		}
		isDefault := w.Branch != "" && w.Branch == target
		isCurrent := isCurrentWorktree(w.Path, cwd)
		items = append(items, listmodel.NewItem(w, name, isDefault, isCurrent))
	}

	linked := make(map[string]bool, len(items))
	for _, it := range items {
		linked[it.ID] = !it.IsDefault
	}
	return items, linked
}

// isCurrentWorktree reports whether cwd is inside (or exactly) the
// worktree path: the test that decides which item owns the process's
// current working directory.
func isCurrentWorktree(worktreePath, cwd string) bool {
	wp := filepath.Clean(worktreePath)
	c := filepath.Clean(cwd)
	if wp == c {
		return true
	}
	rel, err := filepath.Rel(wp, c)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func readUserMarker(ctx context.Context, r repo.Repository, it *listmodel.Item) {
	if it.Branch == "" {
		return
	}
	marker, err := r.ConfigGet(ctx, "worktrunk.marker."+it.Branch)
	if err != nil || marker == "" {
		return
	}
	it.SetUserMarker(marker)
}

// orderedSnapshots returns one Snapshot per item, in the slice's order
// (order is fixed once by listmodel.SortItems and never re-sorted, so
// the returned slice always lines up with rowIndex).
func orderedSnapshots(items []*listmodel.Item) []listmodel.ItemSnapshot {
	out := make([]listmodel.ItemSnapshot, len(items))
	for i, it := range items {
		out[i] = it.Snapshot()
	}
	return out
}

// outcomeTracker records, per task kind, whether it ever completed
// across any item in the run: listmodel.Select needs this to decide
// whether a required-task column has anything to show at all.
type outcomeTracker struct {
	mu        sync.Mutex
	completed map[scheduler.Kind]bool
}

func newOutcomeTracker() *outcomeTracker {
	return &outcomeTracker{completed: make(map[scheduler.Kind]bool)}
}

func (t *outcomeTracker) record(kind scheduler.Kind, ok bool) {
	if !ok {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completed[kind] = true
}

func (t *outcomeTracker) outcomeFunc() listmodel.TaskOutcome {
	return func(kind scheduler.Kind) bool {
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.completed[kind]
	}
}

// writeDebugSummary prints the WT_LIST_DEBUG=1 timing breakdown: total
// wall time, then per-task-kind totals and counts from the run's
// recorded probe timings (empty if the SQLite timing store failed to
// open, e.g. a read-only git-common-dir).
func writeDebugSummary(w io.Writer, items []listmodel.ItemSnapshot, total time.Duration, timings []tracelog.ProbeTiming) {
	fmt.Fprintf(w, "wt list: %d items in %s\n", len(items), total.Round(time.Millisecond))
	if len(timings) == 0 {
		return
	}

	type kindTotal struct {
		count int
		sum   time.Duration
	}
	byKind := make(map[scheduler.Kind]*kindTotal)
	var order []scheduler.Kind
	for _, t := range timings {
		kt, ok := byKind[t.Kind]
		if !ok {
			kt = &kindTotal{}
			byKind[t.Kind] = kt
			order = append(order, t.Kind)
		}
		kt.count++
		kt.sum += time.Duration(t.DurationMs) * time.Millisecond
	}

	for _, kind := range order {
		kt := byKind[kind]
		fmt.Fprintf(w, "  %-16s %3d probes  %s total\n", kind.String(), kt.count, kt.sum.Round(time.Millisecond))
	}
}
