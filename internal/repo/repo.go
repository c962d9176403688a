// Package repo adapts the VCS command-line interface (git, with a jj
// backend selected by ancestor-directory markers) into typed Go
// operations backed by a bounded-concurrency subprocess runner and a
// shared, process-lifetime cache for expensive invariants.
package repo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/worktrunk/wt/internal/procexec"
)

// Sentinel repository errors.
var (
	ErrNotARepository = fmt.Errorf("not a repository")
	ErrDetachedHead   = fmt.Errorf("operation requires a branch, worktree is detached")
)

// ParseError reports unexpected VCS output. Recoverable: the affected
// field renders as a placeholder and the run continues.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string { return "parse error: " + e.Message }

// Repository is the narrow VCS interface every probe goes through.
// Two implementations exist, git and jj, selected by Open's
// ancestor-marker walk.
type Repository interface {
	ListWorktrees(ctx context.Context) ([]Worktree, error)
	DefaultBranch(ctx context.Context) (string, error)
	PrimaryRemote(ctx context.Context) (string, error)

	MergeBase(ctx context.Context, a, b string) (string, error)
	AheadBehind(ctx context.Context, base, head string) (ahead, behind int, err error)
	BatchAheadBehind(ctx context.Context, base string) (map[string]AheadBehind, error)

	ChangedFiles(ctx context.Context, base, head string) ([]string, error)
	BranchDiffStats(ctx context.Context, base, head string) (DiffStats, error)
	WorkingTreeDiffStats(ctx context.Context, worktreeDir string) (DiffStats, error)
	HasStagedChanges(ctx context.Context) (bool, error)

	CountCommits(ctx context.Context, rangeSpec string) (int, error)
	CommitTimestamp(ctx context.Context, rev string) (int64, error)
	CommitTimestamps(ctx context.Context, revs []string) (map[string]int64, error)
	CommitMessage(ctx context.Context, rev string) (string, error)
	CommitSubjects(ctx context.Context, rangeSpec string) ([]string, error)
	RecentCommitSubjects(ctx context.Context, rev string, n int) ([]string, error)

	Branch(name string) *BranchHandle

	GitCommonDir(ctx context.Context) (string, error)

	DetectHost(ctx context.Context) Host
	FetchCIStatus(ctx context.Context, branch string) (CIStatus, error)
	FetchPRStatus(ctx context.Context, branch string) (*PRInfo, error)

	RevParse(ctx context.Context, ref string) (string, error)
	TreeHash(ctx context.Context, rev string) (string, error)
	IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error)
	MergeTreeWriteTree(ctx context.Context, base, head string) (string, error)

	// ConfigGet reads a single-valued git config key, returning "" (no
	// error) when the key is unset. Used for worktrunk.marker.<branch>,
	// worktrunk.default-branch, worktrunk.history and
	// worktrunk.hints.<name>.
	ConfigGet(ctx context.Context, key string) (string, error)
	// ConfigSet writes a single-valued git config key.
	ConfigSet(ctx context.Context, key, value string) error
}

// AheadBehind is a pair of commit counts relative to a base ref.
type AheadBehind struct {
	Ahead  int
	Behind int
}

// DiffStats summarizes committed changes between two revisions.
type DiffStats struct {
	FilesChanged int
	Added        int
	Deleted      int
}

// gitRepository is the git-backed Repository implementation.
type gitRepository struct {
	runner *procexec.Runner
	root   string // worktree root used as the subprocess working directory
	cache  *Cache
}

// Open inspects ancestor directories for VCS markers and returns the
// matching Repository implementation (jj wins co-located repos).
// At each ancestor level, a ".jj" directory wins even when
// ".git" is also present (co-located repos), else a ".git" entry (file
// or directory, since a worktree's ".git" is a file pointing at the
// common dir) selects git.
func Open(ctx context.Context, dir string, runner *procexec.Runner) (Repository, error) {
	switch detectVCS(dir) {
	case vcsJJ:
		root, err := findJJRoot(ctx, runner, dir)
		if err != nil {
			return nil, err
		}
		return &jjRepository{runner: runner, root: root, cache: NewCache()}, nil
	case vcsGit:
		root, err := findGitRoot(ctx, runner, dir)
		if err != nil {
			return nil, err
		}
		return &gitRepository{runner: runner, root: root, cache: NewCache()}, nil
	default:
		return nil, ErrNotARepository
	}
}

type vcsKind int

const (
	vcsNone vcsKind = iota
	vcsGit
	vcsJJ
)

// detectVCS walks dir and its ancestors looking for ".jj" or ".git"
// markers. A pure filesystem walk: no subprocess is needed to decide
// which CLI to shell out to.
func detectVCS(dir string) vcsKind {
	current := dir
	for {
		if info, err := os.Stat(filepath.Join(current, ".jj")); err == nil && info.IsDir() {
			return vcsJJ
		}
		if _, err := os.Stat(filepath.Join(current, ".git")); err == nil {
			return vcsGit
		}
		parent := filepath.Dir(current)
		if parent == current {
			return vcsNone
		}
		current = parent
	}
}

func findGitRoot(ctx context.Context, runner *procexec.Runner, dir string) (string, error) {
	out, err := runner.Run(ctx, dir, "git", "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotARepository, err)
	}
	return out, nil
}

func findJJRoot(ctx context.Context, runner *procexec.Runner, dir string) (string, error) {
	out, err := runner.Run(ctx, dir, "jj", "root")
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotARepository, err)
	}
	return out, nil
}

func (r *gitRepository) run(ctx context.Context, args ...string) (string, error) {
	return r.runner.Run(ctx, r.root, "git", args...)
}

// GitCommonDir resolves the directory shared by all worktrees of the
// repository. `rev-parse --git-common-dir` emits a relative path when
// run from the main worktree, so the result is anchored to the
// repository root before use.
func (r *gitRepository) GitCommonDir(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "rev-parse", "--git-common-dir")
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(r.root, out)
	}
	return filepath.Clean(out), nil
}

func (r *gitRepository) PrimaryRemote(ctx context.Context) (string, error) {
	return r.cache.remote.Get("primary", func() (string, error) {
		out, err := r.run(ctx, "remote")
		if err != nil {
			return "", err
		}
		for _, line := range splitLines(out) {
			if line != "" {
				return line, nil
			}
		}
		return "", fmt.Errorf("no remotes configured")
	})
}
