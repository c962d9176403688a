package repo

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/worktrunk/wt/internal/procexec"
)

// ChangedFiles returns the set of paths touched between base and head,
// parsed from NUL-separated `git diff --name-status -z`. Rename (R…)
// and copy (C…) entries contribute both the new and old path, since
// overlap detection elsewhere needs to see both sides of a rename.
func (r *gitRepository) ChangedFiles(ctx context.Context, base, head string) ([]string, error) {
	out, err := r.runRaw(ctx, "diff", "--name-status", "-z", base+".."+head)
	if err != nil {
		return nil, err
	}
	return parseNameStatusZ(out)
}

func parseNameStatusZ(output string) ([]string, error) {
	fields := splitNUL(output)
	var files []string

	for i := 0; i < len(fields); {
		status := fields[i]
		if status == "" {
			i++
			continue
		}
		i++

		switch status[0] {
		case 'R', 'C':
			if i+1 >= len(fields) {
				return nil, &ParseError{Message: "rename/copy entry missing new path"}
			}
			oldPath := fields[i]
			newPath := fields[i+1]
			i += 2
			files = append(files, newPath, oldPath)
		default:
			if i >= len(fields) {
				return nil, &ParseError{Message: "status entry missing path"}
			}
			files = append(files, fields[i])
			i++
		}
	}
	return files, nil
}

// ParseUntrackedFiles filters `git status --porcelain=v2 -z` output down
// to untracked ("? <path>") entries.
func ParseUntrackedFiles(output string) []string {
	var untracked []string
	for _, field := range splitNUL(output) {
		if rest, ok := strings.CutPrefix(field, "? "); ok {
			untracked = append(untracked, rest)
		}
	}
	return untracked
}

func splitNUL(s string) []string {
	s = strings.TrimSuffix(s, "\x00")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\x00")
}

// BranchDiffStats sums additions/deletions of committed changes
// between base and head, heavy-ops-semaphore gated since it calls
// `diff --numstat` over a merge-base range.
func (r *gitRepository) BranchDiffStats(ctx context.Context, base, head string) (DiffStats, error) {
	mb, err := r.MergeBase(ctx, base, head)
	if err != nil {
		return DiffStats{}, err
	}
	if mb == "" {
		return DiffStats{}, nil
	}

	out, err := r.run(ctx, "diff", "--numstat", mb+".."+head)
	if err != nil {
		return DiffStats{}, err
	}
	return diffStatsSummary(out), nil
}

// DiffStatsSummary is the standalone parser for `diff --numstat` output.
func DiffStatsSummary(numstatOutput string) DiffStats { return diffStatsSummary(numstatOutput) }

func diffStatsSummary(numstatOutput string) DiffStats {
	var stats DiffStats
	for _, line := range splitLines(numstatOutput) {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		stats.FilesChanged++
		// Binary files report "-" for both columns; treat as zero.
		if a, err := strconv.Atoi(fields[0]); err == nil {
			stats.Added += a
		}
		if d, err := strconv.Atoi(fields[1]); err == nil {
			stats.Deleted += d
		}
	}
	return stats
}

// WorkingTreeDiffStats summarizes uncommitted changes (staged and
// unstaged) in a specific worktree, run against worktreeDir rather than
// the repository's primary root since each worktree has its own index
// and working directory. Untracked files are not included, matching
// `git diff HEAD`'s own behavior.
func (r *gitRepository) WorkingTreeDiffStats(ctx context.Context, worktreeDir string) (DiffStats, error) {
	out, err := r.runner.Run(ctx, worktreeDir, "git", "diff", "HEAD", "--numstat")
	if err != nil {
		return DiffStats{}, err
	}
	return diffStatsSummary(out), nil
}

// HasStagedChanges reports whether the index differs from HEAD,
// using the exit code of `diff --cached --quiet --exit-code` only.
func (r *gitRepository) HasStagedChanges(ctx context.Context) (bool, error) {
	_, err := r.run(ctx, "diff", "--cached", "--quiet", "--exit-code")
	if err == nil {
		return false, nil
	}
	var cf *procexec.CommandFailed
	if errors.As(err, &cf) && cf.ExitCode == 1 {
		return true, nil
	}
	return false, err
}

// runRaw behaves like run but does not trim the result, since NUL- and
// newline-delimited output is sensitive to trailing-separator trimming
// done by the trimmed variant.
func (r *gitRepository) runRaw(ctx context.Context, args ...string) (string, error) {
	return r.runner.RunRaw(ctx, r.root, "git", args...)
}
