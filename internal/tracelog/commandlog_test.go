package tracelog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLogWritesJSONLine(t *testing.T) {
	dir := t.TempDir()
	cl := NewCommandLog(dir, "wt list")
	defer cl.Close()

	exit := 0
	dur := 12345 * time.Millisecond
	cl.Log("probe:ci_status", "gh pr checks 42", &exit, &dur)

	data, err := os.ReadFile(filepath.Join(dir, "commands.jsonl"))
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}

	var entry commandEntry
	if err := json.Unmarshal(data[:len(data)-1], &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry.Label != "probe:ci_status" {
		t.Errorf("Label = %q, want probe:ci_status", entry.Label)
	}
	if entry.Cmd != "gh pr checks 42" {
		t.Errorf("Cmd = %q", entry.Cmd)
	}
	if entry.Exit == nil || *entry.Exit != 0 {
		t.Errorf("Exit = %v, want 0", entry.Exit)
	}
	if entry.DurMs == nil || *entry.DurMs != 12345 {
		t.Errorf("DurMs = %v, want 12345", entry.DurMs)
	}
}

func TestLogNullValuesForBackground(t *testing.T) {
	dir := t.TempDir()
	cl := NewCommandLog(dir, "wt switch")
	defer cl.Close()

	cl.Log("post-start user:server", "npm run dev", nil, nil)

	data, err := os.ReadFile(filepath.Join(dir, "commands.jsonl"))
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.Contains(string(data), `"exit":null`) {
		t.Errorf("expected null exit, got %s", data)
	}
	if !strings.Contains(string(data), `"dur_ms":null`) {
		t.Errorf("expected null dur_ms, got %s", data)
	}
}

func TestLogMultipleLinesAppend(t *testing.T) {
	dir := t.TempDir()
	cl := NewCommandLog(dir, "wt list")
	defer cl.Close()

	for i := 0; i < 3; i++ {
		cl.Log("probe:ahead_behind", "git rev-list --left-right --count", nil, nil)
	}

	f, err := os.Open(filepath.Join(dir, "commands.jsonl"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lines := 0
	for scanner.Scan() {
		lines++
	}
	if lines != 3 {
		t.Errorf("lines = %d, want 3", lines)
	}
}

func TestLogRotatesOnOverflow(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "commands.jsonl")

	// Pre-seed a log file over the rotation threshold.
	big := make([]byte, maxLogSize+1)
	for i := range big {
		big[i] = 'x'
	}
	if err := os.WriteFile(logPath, big, 0644); err != nil {
		t.Fatalf("seeding log: %v", err)
	}

	cl := NewCommandLog(dir, "wt list")
	defer cl.Close()
	cl.Log("probe:skeleton", "git worktree list --porcelain", nil, nil)

	oldPath := filepath.Join(dir, "commands.jsonl.old")
	if _, err := os.Stat(oldPath); err != nil {
		t.Fatalf("expected rotated file %s: %v", oldPath, err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading fresh log: %v", err)
	}
	if len(data) == 0 || len(data) > int(maxLogSize) {
		t.Errorf("fresh log size = %d, expected a single small entry", len(data))
	}
}

func TestTruncateCmdASCII(t *testing.T) {
	long := strings.Repeat("x", maxCmdLength+100)
	got := truncateCmd(long)
	gotRunes := []rune(got)
	if len(gotRunes) != maxCmdLength+1 {
		t.Errorf("len = %d, want %d", len(gotRunes), maxCmdLength+1)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("expected ellipsis suffix, got %q", got[len(got)-10:])
	}
}

func TestTruncateCmdMultibyte(t *testing.T) {
	long := strings.Repeat("é", maxCmdLength+100)
	got := truncateCmd(long)
	gotRunes := []rune(got)
	if len(gotRunes) != maxCmdLength+1 {
		t.Errorf("len = %d, want %d", len(gotRunes), maxCmdLength+1)
	}
	if !strings.HasSuffix(got, "…") {
		t.Error("expected ellipsis suffix")
	}
}

func TestTruncateCmdNoTruncationWhenShort(t *testing.T) {
	short := "echo hello"
	if got := truncateCmd(short); got != short {
		t.Errorf("got %q, want %q unchanged", got, short)
	}
}
