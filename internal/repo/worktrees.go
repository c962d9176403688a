package repo

import (
	"context"
	"strings"
)

// Worktree is the skeleton record: known before
// any probe runs, produced from a single listing command.
type Worktree struct {
	Path     string
	Head     string
	Branch   string // empty means detached or unassigned
	Bare     bool
	Detached bool
	Locked   *string
	Prunable *string
}

// ListWorktrees parses `git worktree list --porcelain` into skeleton
// records. Each record starts with a "worktree <path>" line and ends at
// a blank line; the final record is flushed even without a trailing
// blank line.
func (r *gitRepository) ListWorktrees(ctx context.Context) ([]Worktree, error) {
	out, err := r.run(ctx, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}
	return parsePorcelainWorktreeList(out)
}

func parsePorcelainWorktreeList(output string) ([]Worktree, error) {
	var worktrees []Worktree
	var current *Worktree

	flush := func() {
		if current != nil {
			worktrees = append(worktrees, *current)
			current = nil
		}
	}

	for _, line := range splitLines(output) {
		if line == "" {
			flush()
			continue
		}

		key, value, hasValue := cutFirstSpace(line)

		if key == "worktree" {
			if !hasValue {
				return nil, &ParseError{Message: "worktree line missing path"}
			}
			flush()
			current = &Worktree{Path: value}
			continue
		}

		if current == nil {
			continue // attribute before any worktree line: ignore
		}

		switch key {
		case "HEAD":
			if !hasValue {
				return nil, &ParseError{Message: "HEAD line missing SHA"}
			}
			current.Head = value
		case "branch":
			if !hasValue {
				return nil, &ParseError{Message: "branch line missing ref"}
			}
			current.Branch = strings.TrimPrefix(value, "refs/heads/")
		case "bare":
			current.Bare = true
		case "detached":
			current.Detached = true
		case "locked":
			v := value
			current.Locked = &v
		case "prunable":
			v := value
			current.Prunable = &v
		default:
			// unknown attribute: ignore, forward-compatible with newer git
		}
	}
	flush()

	return worktrees, nil
}

// splitLines splits on "\n" without producing a trailing empty element
// for output that already ends in a newline.
func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func cutFirstSpace(line string) (key, value string, hasValue bool) {
	if idx := strings.IndexByte(line, ' '); idx >= 0 {
		return line[:idx], line[idx+1:], true
	}
	return line, "", false
}
