package procexec

import (
	"context"
	"strings"
	"time"
)

// heavyOps names the git invocations known to stress git's
// pack/commit-graph mmap. Only these acquire the
// heavy-ops semaphore; everything else bypasses it.
var heavyOps = map[string]bool{
	"rev-list":   true,
	"diff":       true,
	"merge-tree": true,
}

// TraceEvent is emitted once per subprocess invocation when tracing is
// enabled, mirroring the fields commandlog writes to commands.jsonl.
type TraceEvent struct {
	Program  string
	Args     []string
	Duration time.Duration
	ExitCode int // -1 when the process never produced an exit code
	Err      error
}

// TraceFunc receives a TraceEvent per invocation.
type TraceFunc func(TraceEvent)

// Runner is the sole entry point for invoking the VCS CLI (or gh/glab).
// It owns the heavy-ops semaphore and an optional trace sink.
type Runner struct {
	heavySem chan struct{}
	trace    TraceFunc
	procs    *ProcessManager
}

// NewRunner creates a Runner with the given heavy-ops permit count
// (default 4). A zero or negative count disables the limit.
func NewRunner(heavyPermits int, procs *ProcessManager, trace TraceFunc) *Runner {
	var sem chan struct{}
	if heavyPermits > 0 {
		sem = make(chan struct{}, heavyPermits)
	}
	return &Runner{heavySem: sem, trace: trace, procs: procs}
}

// Run executes program with args in dir (empty means inherit cwd),
// returning trimmed stdout or a structured error. Heavy git subcommands
// are gated by the heavy-ops semaphore.
func (r *Runner) Run(ctx context.Context, dir, program string, args ...string) (string, error) {
	out, err := r.exec(ctx, dir, program, args)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// RunRaw is Run without output trimming, for NUL- and newline-delimited
// output where a trailing separator is significant.
func (r *Runner) RunRaw(ctx context.Context, dir, program string, args ...string) (string, error) {
	return r.exec(ctx, dir, program, args)
}

func (r *Runner) exec(ctx context.Context, dir, program string, args []string) (string, error) {
	if r.isHeavy(program, args) && r.heavySem != nil {
		select {
		case r.heavySem <- struct{}{}:
			defer func() { <-r.heavySem }()
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	cmd := newCommand(ctx, program, args...)
	if dir != "" {
		cmd.Dir = dir
	}

	start := time.Now()
	stdout, stderr, err := executeCommand(ctx, cmd, nil, r.procs)
	duration := time.Since(start)

	exitCode := 0
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	} else if err != nil {
		exitCode = -1
	}

	if r.trace != nil {
		r.trace(TraceEvent{Program: program, Args: args, Duration: duration, ExitCode: exitCode, Err: err})
	}

	if err != nil {
		return "", &CommandFailed{Program: program, Args: args, ExitCode: exitCode, Stderr: string(stderr), Err: err}
	}

	return string(stdout), nil
}

func (r *Runner) isHeavy(program string, args []string) bool {
	if len(args) == 0 {
		return false
	}
	return program == "git" && heavyOps[args[0]]
}

// CommandFailed reports a non-zero subprocess exit.
type CommandFailed struct {
	Program  string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandFailed) Error() string {
	return "command failed: " + e.Program + " " + strings.Join(e.Args, " ") + ": " + e.Err.Error()
}

func (e *CommandFailed) Unwrap() error { return e.Err }
