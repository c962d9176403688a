// Package tracelog logs external command executions and probe timings for
// `wt list` to `.git/wt-logs/`, and assembles a diagnostic bundle on error.
package tracelog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// maxLogSize is the rotation threshold: when commands.jsonl exceeds this
// size, it is renamed to commands.jsonl.old and a fresh file is started.
// This bounds storage to ~2MB worst case.
const maxLogSize = 1_048_576

// maxCmdLength is the maximum number of runes kept from a logged command
// string before truncation with a trailing ellipsis.
const maxCmdLength = 2000

// CommandLog is an always-on JSONL writer for external command executions,
// shared across all probes in a `wt list` run. The zero value is not usable;
// construct with NewCommandLog.
type CommandLog struct {
	mu        sync.Mutex
	logPath   string
	file      *os.File
	wtCommand string
}

// commandEntry is one JSONL line. Exit and DurMs are nullable for
// background commands whose outcome isn't known at log time.
type commandEntry struct {
	Ts     string `json:"ts"`
	Wt     string `json:"wt"`
	Label  string `json:"label"`
	Cmd    string `json:"cmd"`
	Exit   *int   `json:"exit"`
	DurMs  *int64 `json:"dur_ms"`
}

// NewCommandLog creates a command log writing to logDir/commands.jsonl.
// The file and directory are created lazily on first write. wtCommand
// identifies the invoking `wt` command line, recorded on every entry.
func NewCommandLog(logDir, wtCommand string) *CommandLog {
	return &CommandLog{
		logPath:   filepath.Join(logDir, "commands.jsonl"),
		wtCommand: wtCommand,
	}
}

// Log records one external command execution. exitCode and duration may be
// nil for background commands (e.g. a detached dev server) where the
// outcome isn't known at log time. label identifies what triggered the
// command (e.g. "probe:ci_status", "hook:pre-merge user:lint").
func (c *CommandLog) Log(label, command string, exitCode *int, duration *time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.rotateIfNeededLocked(); err != nil {
		return
	}
	if c.file == nil {
		if err := c.openLocked(); err != nil {
			return
		}
	}

	var durMs *int64
	if duration != nil {
		ms := duration.Milliseconds()
		durMs = &ms
	}

	entry := commandEntry{
		Ts:    time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		Wt:    c.wtCommand,
		Label: label,
		Cmd:   truncateCmd(command),
		Exit:  exitCode,
		DurMs: durMs,
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return
	}
	line = append(line, '\n')

	// Single write to avoid interleaving with concurrent wt processes.
	_, _ = c.file.Write(line)
}

// Close releases the underlying file handle, if open.
func (c *CommandLog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file = nil
	return err
}

func (c *CommandLog) rotateIfNeededLocked() error {
	info, err := os.Stat(c.logPath)
	if err != nil {
		// Missing file is not an error; nothing to rotate yet.
		return nil
	}
	if info.Size() <= maxLogSize {
		return nil
	}

	if c.file != nil {
		c.file.Close()
		c.file = nil
	}
	oldPath := c.logPath[:len(c.logPath)-len(filepath.Ext(c.logPath))] + ".jsonl.old"
	return os.Rename(c.logPath, oldPath)
}

func (c *CommandLog) openLocked() error {
	if err := os.MkdirAll(filepath.Dir(c.logPath), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(c.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	c.file = f
	return nil
}

// truncateCmd truncates command to maxCmdLength runes, appending an
// ellipsis if truncated. Truncation counts runes, not bytes, so multi-byte
// commands aren't cut mid-character.
func truncateCmd(command string) string {
	runes := []rune(command)
	if len(runes) <= maxCmdLength {
		return command
	}
	return string(runes[:maxCmdLength]) + "…"
}
