package config

import "time"

// TaskDeadlines maps a task kind name to its per-task timeout. Keys
// match scheduler.Kind.String() (e.g. "ci_status", "branch_diff"); a
// kind with no entry falls back to EngineConfig.DefaultTaskDeadline.
type TaskDeadlines map[string]time.Duration

// EngineConfig is the top-level configuration: the knobs that tune the
// probe engine's concurrency and resilience rather than its domain
// logic, which has no user-facing configuration surface.
type EngineConfig struct {
	// WorkerPoolSize bounds the executor's concurrent task dispatch. Zero
	// means derive it from scheduler.PoolSize at run time.
	WorkerPoolSize int `json:"worker_pool_size,omitempty"`

	// HeavyOpsPermits bounds concurrent rev-list/diff/merge-tree
	// subprocesses. Zero or negative disables the limit.
	HeavyOpsPermits int `json:"heavy_ops_permits"`

	// TaskDeadlines overrides the default per-task-kind timeout.
	TaskDeadlines TaskDeadlines `json:"task_deadlines,omitempty"`

	// DefaultTaskDeadline applies to any task kind absent from
	// TaskDeadlines.
	DefaultTaskDeadline time.Duration `json:"default_task_deadline"`

	// Trace toggles the command log written to
	// <vcs-common-dir>/wt-logs/commands.jsonl. Unset means on.
	Trace *bool `json:"trace,omitempty"`

	// TargetBranch overrides the comparison trunk; empty means resolve
	// the repository's default branch at run time.
	TargetBranch string `json:"target_branch,omitempty"`
}

// TraceEnabled reports whether the command log should be written. The
// log is on unless a config file explicitly sets "trace": false.
func (c *EngineConfig) TraceEnabled() bool {
	return c.Trace == nil || *c.Trace
}
