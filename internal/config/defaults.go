package config

import "time"

// DefaultConfig returns the engine's built-in tuning values: heavy-ops
// concurrency gated to 4 permits, branch-diff probes bounded at 5s and
// CI fetches at 10s (the CI fetch crosses the network to a forge API
// rather than a local git invocation), every other task unbounded.
func DefaultConfig() *EngineConfig {
	return &EngineConfig{
		HeavyOpsPermits:     4,
		DefaultTaskDeadline: 0,
		TaskDeadlines: TaskDeadlines{
			"branch_diff": 5 * time.Second,
			"ci_status":   10 * time.Second,
		},
	}
}
