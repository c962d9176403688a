package tracelog

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/worktrunk/wt/internal/procexec"
	"github.com/worktrunk/wt/internal/repo"
)

// verboseLogTailLines bounds how much of commands.jsonl is copied into the
// diagnostic bundle.
const verboseLogTailLines = 200

// WriteDiagnostic assembles `<logDir>/diagnostic.md` on failure or under
// --verbose: header, privacy notice, VCS and tool versions, worktree
// listing, and a tail of the verbose command log. ANSI codes are stripped
// from the context block since this file is meant to be pasted into an
// issue tracker. Returns the path written.
func WriteDiagnostic(ctx context.Context, logDir string, r repo.Repository, runner *procexec.Runner, cause error) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# wt diagnostic bundle\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", time.Now().UTC().Format(time.RFC3339))
	if cause != nil {
		fmt.Fprintf(&b, "Triggered by: %s\n\n", ansi.Strip(cause.Error()))
	}

	b.WriteString("## Privacy notice\n\n")
	b.WriteString("This bundle includes branch names, commit subjects, and recent command\n")
	b.WriteString("lines from this repository. Review before sharing outside your team.\n\n")

	b.WriteString("## Versions\n\n")
	writeVersionLine(&b, ctx, runner, "git", "--version")
	writeVersionLine(&b, ctx, runner, "gh", "--version")
	fmt.Fprintf(&b, "- go: %s\n\n", runtime.Version())

	b.WriteString("## Worktrees\n\n")
	worktrees, err := r.ListWorktrees(ctx)
	if err != nil {
		fmt.Fprintf(&b, "(failed to list worktrees: %s)\n\n", ansi.Strip(err.Error()))
	} else {
		for _, wt := range worktrees {
			fmt.Fprintf(&b, "- %s (%s)\n", wt.Path, wt.Branch)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Verbose log tail\n\n")
	b.WriteString("```\n")
	tail, err := tailLines(filepath.Join(logDir, "commands.jsonl"), verboseLogTailLines)
	if err != nil {
		fmt.Fprintf(&b, "(no log available: %s)\n", err)
	} else {
		b.WriteString(ansi.Strip(tail))
	}
	b.WriteString("```\n")

	path := filepath.Join(logDir, "diagnostic.md")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("creating log directory: %w", err)
	}
	// Overwritten on failure, matching the always-latest-bundle contract.
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("writing diagnostic bundle: %w", err)
	}

	return path, nil
}

func writeVersionLine(b *strings.Builder, ctx context.Context, runner *procexec.Runner, program string, args ...string) {
	out, err := runner.Run(ctx, ".", program, args...)
	if err != nil {
		fmt.Fprintf(b, "- %s: unavailable\n", program)
		return
	}
	fmt.Fprintf(b, "- %s\n", strings.TrimSpace(strings.SplitN(out, "\n", 2)[0]))
}

// tailLines returns the last n lines of the file at path.
func tailLines(path string, n int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	return strings.Join(lines, "\n") + "\n", nil
}
