package listrun

import (
	"context"
	"time"

	"github.com/worktrunk/wt/internal/scheduler"
	"github.com/worktrunk/wt/internal/tracelog"
)

// timingProber wraps a Prober and reports each task's wall-clock
// duration through onDone, so WT_LIST_DEBUG=1 can show a per-kind
// timing breakdown without the scheduler itself knowing about storage.
type timingProber struct {
	next   scheduler.Prober
	onDone func(itemID string, kind scheduler.Kind, dur time.Duration, err error)
}

func (p *timingProber) Execute(ctx context.Context, itemID string, kind scheduler.Kind) (any, error) {
	start := time.Now()
	result, err := p.next.Execute(ctx, itemID, kind)
	p.onDone(itemID, kind, time.Since(start), err)
	return result, err
}

// recordProbeTiming persists one task's outcome to store, tolerating a
// nil store so callers don't need to branch on whether timing is on.
func recordProbeTiming(ctx context.Context, store tracelog.Store, runID string, itemID string, kind scheduler.Kind, dur time.Duration, err error) {
	if store == nil {
		return
	}
	status := "completed"
	errMsg := ""
	if err != nil {
		status = "failed"
		errMsg = err.Error()
	}
	_ = store.RecordProbe(ctx, runID, tracelog.ProbeTiming{
		ItemID:     itemID,
		Kind:       kind,
		Status:     status,
		DurationMs: dur.Milliseconds(),
		Err:        errMsg,
	})
}
