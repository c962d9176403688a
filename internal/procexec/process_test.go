package procexec

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestExecuteCommand_BasicExecution(t *testing.T) {
	ctx := context.Background()
	cmd := newCommand(ctx, "echo", "hello")

	stdout, stderr, err := executeCommand(ctx, cmd, nil, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !strings.Contains(string(stdout), "hello") {
		t.Errorf("expected stdout to contain 'hello', got: %s", stdout)
	}
	if len(stderr) > 0 {
		t.Errorf("expected empty stderr, got: %s", stderr)
	}
}

func TestExecuteCommand_ConcurrentPipeReading_LargeOutput(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Emit well above the 64KB pipe buffer to exercise the concurrent
	// drain path; a naive sequential read would deadlock here.
	cmd := newCommand(ctx, "bash", "-c", "for i in $(seq 1 20000); do echo line-$i; done")

	start := time.Now()
	stdout, _, err := executeCommand(ctx, cmd, nil, nil)
	duration := time.Since(start)
	if err != nil {
		t.Fatalf("expected no error, got: %v (took %v)", err, duration)
	}

	lines := strings.Split(strings.TrimSpace(string(stdout)), "\n")
	if len(lines) < 20000 {
		t.Errorf("expected 20000 lines, got %d", len(lines))
	}
	if duration > 5*time.Second {
		t.Errorf("command took too long (%v), possible deadlock", duration)
	}
}

func TestExecuteCommand_StderrCapture(t *testing.T) {
	ctx := context.Background()
	cmd := newCommand(ctx, "bash", "-c", "echo error >&2; echo ok")

	stdout, stderr, err := executeCommand(ctx, cmd, nil, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !strings.Contains(string(stdout), "ok") {
		t.Errorf("expected stdout to contain 'ok', got: %s", stdout)
	}
	if !strings.Contains(string(stderr), "error") {
		t.Errorf("expected stderr to contain 'error', got: %s", stderr)
	}
}

func TestExecuteCommand_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	cmd := newCommand(ctx, "sleep", "30")
	_, _, err := executeCommand(ctx, cmd, nil, nil)
	if err == nil {
		t.Fatal("expected error due to context cancellation, got nil")
	}
}

func TestExecuteCommand_NonZeroExitCode(t *testing.T) {
	ctx := context.Background()
	cmd := newCommand(ctx, "bash", "-c", "echo test-output; exit 1")

	stdout, _, err := executeCommand(ctx, cmd, nil, nil)
	if err == nil {
		t.Fatal("expected error due to non-zero exit code, got nil")
	}
	if !strings.Contains(string(stdout), "test-output") {
		t.Errorf("expected stdout to be captured despite error, got: %s", stdout)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code != 1 {
			t.Errorf("expected exit code 1, got %d", code)
		}
	} else {
		t.Errorf("expected error to wrap *exec.ExitError, got %T: %v", err, err)
	}
}

func TestProcessManager_TrackAndKillAll(t *testing.T) {
	pm := NewProcessManager()

	ctx := context.Background()
	cmd := newCommand(ctx, "sleep", "300")
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start process: %v", err)
	}
	pm.Track(cmd)

	if pm.Count() != 1 {
		t.Errorf("expected 1 tracked process, got %d", pm.Count())
	}

	pm.KillAll()

	err := cmd.Wait()
	if err == nil {
		t.Error("expected process to be killed (non-nil error), got nil")
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && !status.Signaled() {
			t.Errorf("expected process to be signaled, got exit status: %v", status)
		}
	}

	pm.Untrack(cmd)
	if pm.Count() != 0 {
		t.Errorf("expected 0 tracked processes after Untrack, got %d", pm.Count())
	}
}

func TestSanitizedEnv_StripsGitVariables(t *testing.T) {
	in := []string{
		"HOME=/home/u",
		"GIT_DIR=/somewhere/.git",
		"GIT_WORK_TREE=/somewhere",
		"GIT_CONFIG_GLOBAL=/tmp/gitconfig",
		"GIT_CONFIG_NOSYSTEM=1",
		"PATH=/usr/bin",
	}
	got := sanitizedEnv(in)

	want := map[string]bool{
		"HOME=/home/u":                    true,
		"GIT_CONFIG_GLOBAL=/tmp/gitconfig": true,
		"GIT_CONFIG_NOSYSTEM=1":           true,
		"PATH=/usr/bin":                   true,
	}
	if len(got) != len(want) {
		t.Fatalf("sanitizedEnv kept %d entries, want %d: %v", len(got), len(want), got)
	}
	for _, kv := range got {
		if !want[kv] {
			t.Errorf("sanitizedEnv kept unexpected entry %q", kv)
		}
	}
}
