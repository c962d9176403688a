package events

import (
	"time"

	"github.com/worktrunk/wt/internal/scheduler"
)

// Event is the base interface for all events published on the bus.
type Event interface {
	EventType() string
	ItemID() string
}

// Topic constants: the renderer subscribes to TopicRow for incremental
// repaint, TopicRun for start/stop framing.
const (
	TopicRow = "row"
	TopicRun = "run"
)

// Event type constants.
const (
	EventTypeRowChanged  = "row.changed"
	EventTypeTaskDone    = "row.task_done"
	EventTypeRunComplete = "run.complete"
)

// RowChanged is published whenever a task settles and its item's
// displayed row needs to be recomputed from the DAG's current results.
type RowChanged struct {
	Item      string
	Kind      scheduler.Kind
	Status    scheduler.Status
	Timestamp time.Time
}

func (e RowChanged) EventType() string { return EventTypeRowChanged }
func (e RowChanged) ItemID() string    { return e.Item }

// TaskDone carries a settled task's result value, error and duration.
// The list run itself publishes only RowChanged and RunComplete.
type TaskDone struct {
	Item      string
	Kind      scheduler.Kind
	Status    scheduler.Status
	Result    any
	Err       error
	Duration  time.Duration
	Timestamp time.Time
}

func (e TaskDone) EventType() string { return EventTypeTaskDone }
func (e TaskDone) ItemID() string    { return e.Item }

// RunComplete is published once when every item's DAG has settled.
type RunComplete struct {
	ItemCount int
	Duration  time.Duration
	Timestamp time.Time
}

func (e RunComplete) EventType() string { return EventTypeRunComplete }
func (e RunComplete) ItemID() string    { return "" }
