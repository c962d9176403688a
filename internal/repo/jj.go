package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/worktrunk/wt/internal/procexec"
)

// jjRepository is the jj-backed Repository implementation, selected by
// Open when ".jj" wins the ancestor-marker walk. jj workspaces stand in
// for git worktrees, bookmarks for branches, and change IDs for commit
// SHAs. Several git-object-model primitives (tree hashes, a ref-free
// simulated merge) have no jj CLI equivalent; see the method comments
// below and DESIGN.md for how each one degrades.
type jjRepository struct {
	runner *procexec.Runner
	root   string
	cache  *Cache
}

func (r *jjRepository) run(ctx context.Context, args ...string) (string, error) {
	return r.runner.Run(ctx, r.root, "jj", args...)
}

// workspaceListLine is one parsed record of `jj workspace list`'s
// human-readable output: "name: /path (current)".
type workspaceListLine struct {
	name      string
	path      string
	isCurrent bool
}

func parseJJWorkspaceList(output string) []workspaceListLine {
	var out []workspaceListLine
	for _, line := range splitLines(output) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, rest, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		isCurrent := strings.HasSuffix(rest, "(current)")
		path := rest
		if isCurrent {
			path = strings.TrimSpace(strings.TrimSuffix(rest, "(current)"))
		}
		out = append(out, workspaceListLine{name: name, path: path, isCurrent: isCurrent})
	}
	return out
}

// ListWorktrees lists jj workspaces and maps each onto the VCS-agnostic
// Worktree skeleton: workspace name -> display name, working-copy
// change ID -> Head, first tracked bookmark -> Branch. The workspace
// name stands in for the branch when no bookmark is present.
func (r *jjRepository) ListWorktrees(ctx context.Context) ([]Worktree, error) {
	out, err := r.run(ctx, "workspace", "list")
	if err != nil {
		return nil, err
	}
	lines := parseJJWorkspaceList(out)

	worktrees := make([]Worktree, 0, len(lines))
	for _, ws := range lines {
		head, bookmark, err := r.workspaceHeadAndBookmark(ctx, ws.name)
		if err != nil {
			// A workspace whose working-copy commit can't be resolved
			// (e.g. concurrently removed) is skipped, not probed.
			continue
		}
		worktrees = append(worktrees, Worktree{
			Path:     ws.path,
			Head:     head,
			Branch:   bookmark,
			Detached: bookmark == "",
		})
	}
	return worktrees, nil
}

// workspaceHeadAndBookmark resolves a workspace's working-copy commit
// and its first tracked bookmark (if any) via the "<name>@" revset,
// jj's syntax for "the working-copy commit of workspace <name>".
func (r *jjRepository) workspaceHeadAndBookmark(ctx context.Context, name string) (head, bookmark string, err error) {
	out, err := r.run(ctx, "log", "--no-graph", "-r", name+"@",
		"-T", `commit_id ++ "\x00" ++ bookmarks.join(",") ++ "\n"`)
	if err != nil {
		return "", "", err
	}
	fields := strings.SplitN(strings.TrimSpace(out), "\x00", 2)
	head = fields[0]
	if len(fields) > 1 && fields[1] != "" {
		bookmark = strings.SplitN(fields[1], ",", 2)[0]
	}
	return head, bookmark, nil
}

// DefaultBranch resolves the trunk bookmark, preferring the same
// candidate order as git's DefaultBranch: main, master, trunk, develop,
// else the first bookmark found.
func (r *jjRepository) DefaultBranch(ctx context.Context) (string, error) {
	return r.cache.defaultBranch.Get("default", func() (string, error) {
		bookmarks, err := r.listBookmarkNames(ctx)
		if err != nil {
			return "", err
		}
		for _, candidate := range []string{"main", "master", "trunk", "develop"} {
			for _, b := range bookmarks {
				if b == candidate {
					return candidate, nil
				}
			}
		}
		if len(bookmarks) > 0 {
			return bookmarks[0], nil
		}
		return "", fmt.Errorf("could not determine the default bookmark: no bookmarks found")
	})
}

func (r *jjRepository) listBookmarkNames(ctx context.Context) ([]string, error) {
	pairs, err := r.listBookmarks(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(pairs))
	for i, p := range pairs {
		names[i] = p.name
	}
	return names, nil
}

type jjBookmark struct {
	name   string
	commit string
}

// listBookmarks runs `jj bookmark list` with a null-separated template.
func (r *jjRepository) listBookmarks(ctx context.Context) ([]jjBookmark, error) {
	out, err := r.run(ctx, "bookmark", "list", "--template", `name ++ "\x00" ++ commit_id ++ "\n"`)
	if err != nil {
		return nil, err
	}
	var bookmarks []jjBookmark
	for _, line := range splitLines(out) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, commit, ok := strings.Cut(line, "\x00")
		if !ok {
			continue
		}
		bookmarks = append(bookmarks, jjBookmark{name: name, commit: commit})
	}
	return bookmarks, nil
}

// PrimaryRemote returns the first configured git remote of a co-located
// (or `jj git init`-backed) repository. jj has no remote concept of its
// own beyond the git backend it stores commits in.
func (r *jjRepository) PrimaryRemote(ctx context.Context) (string, error) {
	return r.cache.remote.Get("primary", func() (string, error) {
		out, err := r.run(ctx, "git", "remote", "list")
		if err != nil {
			return "", err
		}
		for _, line := range splitLines(out) {
			fields := strings.Fields(line)
			if len(fields) > 0 {
				return fields[0], nil
			}
		}
		return "", fmt.Errorf("no remotes configured")
	})
}

// MergeBase returns a common ancestor of a and b via the revset
// `heads(::a & ::b)`, the closest jj equivalent of `git merge-base`:
// the heads of the intersection of both commits' ancestor sets.
func (r *jjRepository) MergeBase(ctx context.Context, a, b string) (string, error) {
	key := mergeBaseKey(a, b)
	return r.cache.mergeBase.Get(key, func() (string, error) {
		revset := fmt.Sprintf("heads(::%s & ::%s)", a, b)
		out, err := r.run(ctx, "log", "--no-graph", "-T", `commit_id ++ "\n"`, "-r", revset)
		if err != nil {
			return "", nil
		}
		lines := splitLines(strings.TrimSpace(out))
		if len(lines) == 0 {
			return "", nil
		}
		return lines[0], nil
	})
}

// AheadBehind counts commits reachable from head but not base, and vice
// versa, via the revset difference operator `~`.
func (r *jjRepository) AheadBehind(ctx context.Context, base, head string) (int, int, error) {
	if cached, ok := r.GetCachedAheadBehind(base, head); ok {
		return cached.Ahead, cached.Behind, nil
	}
	ahead, err := r.countRevset(ctx, fmt.Sprintf("(::%s) ~ (::%s)", head, base))
	if err != nil {
		return 0, 0, err
	}
	behind, err := r.countRevset(ctx, fmt.Sprintf("(::%s) ~ (::%s)", base, head))
	if err != nil {
		return 0, 0, err
	}
	r.cache.aheadBehind.Set(aheadBehindKey(base, head), AheadBehind{Ahead: ahead, Behind: behind})
	return ahead, behind, nil
}

func (r *jjRepository) countRevset(ctx context.Context, revset string) (int, error) {
	out, err := r.run(ctx, "log", "--no-graph", "-T", `commit_id ++ "\n"`, "-r", revset)
	if err != nil {
		return 0, err
	}
	return len(splitLines(strings.TrimSpace(out))), nil
}

// BatchAheadBehind has no single-invocation jj equivalent of git's
// `for-each-ref --format=%(ahead-behind:...)`, and jj repos typically
// have few workspaces (1-5), so batching buys little. This returns an
// empty map so callers fall back to per-branch AheadBehind on demand,
// the same graceful-degradation path git < 2.36 takes on the git side.
func (r *jjRepository) BatchAheadBehind(ctx context.Context, base string) (map[string]AheadBehind, error) {
	return map[string]AheadBehind{}, nil
}

// GetCachedAheadBehind performs a read-only cache lookup.
func (r *jjRepository) GetCachedAheadBehind(base, head string) (AheadBehind, bool) {
	return r.cache.aheadBehind.Peek(aheadBehindKey(base, head))
}

var jjDiffSummaryLine = regexp.MustCompile(`^([MADRC])\s+(.+)$`)

// ChangedFiles lists paths touched between base and head via
// `jj diff --summary`, splitting rename/copy "old => new" entries into
// both paths so overlap detection sees both sides, mirroring git's
// ChangedFiles contract.
func (r *jjRepository) ChangedFiles(ctx context.Context, base, head string) ([]string, error) {
	out, err := r.run(ctx, "diff", "--from", base, "--to", head, "--summary")
	if err != nil {
		return nil, err
	}
	return parseJJDiffSummary(out), nil
}

// parseJJDiffSummary parses `jj diff --summary` output, splitting
// rename/copy "old => new" entries into both paths so overlap detection
// elsewhere sees both sides of a rename, mirroring git's ChangedFiles.
func parseJJDiffSummary(output string) []string {
	var files []string
	for _, line := range splitLines(output) {
		m := jjDiffSummaryLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		status, rest := m[1], m[2]
		if (status == "R" || status == "C") && strings.Contains(rest, " => ") {
			parts := strings.SplitN(rest, " => ", 2)
			files = append(files, strings.TrimSpace(parts[1]), strings.TrimSpace(parts[0]))
			continue
		}
		files = append(files, strings.TrimSpace(rest))
	}
	return files
}

var diffStatTrailer = regexp.MustCompile(`(\d+)\s+files?\s+changed(?:,\s+(\d+)\s+insertions?\(\+\))?(?:,\s+(\d+)\s+deletions?\(-\))?`)

// jjStatSummary parses the "N files changed, M insertions(+), K
// deletions(-)" trailer `jj diff --stat` shares with the broader
// diff-tool convention (the same trailer git's own `diff --stat`, as
// opposed to `--numstat`, emits).
func jjStatSummary(output string) DiffStats {
	m := diffStatTrailer.FindStringSubmatch(output)
	if m == nil {
		return DiffStats{}
	}
	stats := DiffStats{}
	stats.FilesChanged, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		stats.Added, _ = strconv.Atoi(m[2])
	}
	if m[3] != "" {
		stats.Deleted, _ = strconv.Atoi(m[3])
	}
	return stats
}

// BranchDiffStats sums additions/deletions of committed changes between
// base and head via `jj diff --stat` over the merge-base range.
func (r *jjRepository) BranchDiffStats(ctx context.Context, base, head string) (DiffStats, error) {
	mb, err := r.MergeBase(ctx, base, head)
	if err != nil {
		return DiffStats{}, err
	}
	if mb == "" {
		return DiffStats{}, nil
	}
	out, err := r.run(ctx, "diff", "--from", mb, "--to", head, "--stat")
	if err != nil {
		return DiffStats{}, err
	}
	return jjStatSummary(out), nil
}

// WorkingTreeDiffStats summarizes uncommitted changes in a specific
// workspace directory via `jj diff --stat` against that workspace's
// own working-copy commit.
func (r *jjRepository) WorkingTreeDiffStats(ctx context.Context, worktreeDir string) (DiffStats, error) {
	out, err := r.runner.Run(ctx, worktreeDir, "jj", "diff", "--stat")
	if err != nil {
		return DiffStats{}, err
	}
	return jjStatSummary(out), nil
}

// HasStagedChanges always reports false: jj has no staging area (index)
// distinct from the working copy.
func (r *jjRepository) HasStagedChanges(ctx context.Context) (bool, error) {
	return false, nil
}

// CountCommits treats rangeSpec as a jj revset directly (callers pass
// git-style "A..B" range specs; jj's own ".." operator has the same
// ancestor-set-difference meaning, so the string is forwarded unchanged).
func (r *jjRepository) CountCommits(ctx context.Context, rangeSpec string) (int, error) {
	return r.countRevset(ctx, rangeSpec)
}

// CommitTimestamp returns the committer timestamp of rev as a Unix
// second count, via jj's template language.
func (r *jjRepository) CommitTimestamp(ctx context.Context, rev string) (int64, error) {
	out, err := r.run(ctx, "log", "--no-graph", "-T", `committer.timestamp().format("%s")`, "-r", rev)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(strings.TrimSpace(out), 10, 64)
}

// CommitTimestamps batches CommitTimestamp per revision. jj's template
// language only evaluates against a single working context per `-r`, so
// unlike git's single-invocation "show %H %ct" batch this runs one
// invocation per revision; acceptable since jj repos tend to have few
// workspaces.
func (r *jjRepository) CommitTimestamps(ctx context.Context, revs []string) (map[string]int64, error) {
	result := make(map[string]int64, len(revs))
	for _, rev := range revs {
		ts, err := r.CommitTimestamp(ctx, rev)
		if err != nil {
			continue
		}
		result[rev] = ts
	}
	return result, nil
}

// CommitMessage returns the full change description of rev.
func (r *jjRepository) CommitMessage(ctx context.Context, rev string) (string, error) {
	return r.run(ctx, "log", "--no-graph", "-T", "description", "-r", rev)
}

// CommitSubjects returns one first-line description per commit in
// rangeSpec, most recent first.
func (r *jjRepository) CommitSubjects(ctx context.Context, rangeSpec string) ([]string, error) {
	out, err := r.run(ctx, "log", "--no-graph", "-T", `description.first_line() ++ "\n"`, "-r", rangeSpec)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// RecentCommitSubjects returns up to n descriptions reachable from rev.
func (r *jjRepository) RecentCommitSubjects(ctx context.Context, rev string, n int) ([]string, error) {
	out, err := r.run(ctx, "log", "--no-graph", "-T", `description.first_line() ++ "\n"`,
		"-r", "::"+rev, "--limit", strconv.Itoa(n))
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// Branch returns a handle bound to the given bookmark name.
func (r *jjRepository) Branch(name string) *BranchHandle {
	return &BranchHandle{backend: r, name: name}
}

func (r *jjRepository) branchExistsLocally(ctx context.Context, name string) (bool, error) {
	bookmarks, err := r.listBookmarkNames(ctx)
	if err != nil {
		return false, err
	}
	for _, b := range bookmarks {
		if b == name {
			return true, nil
		}
	}
	return false, nil
}

// branchExists is identical to branchExistsLocally for jj: bookmark
// list already includes tracked remote bookmarks' local names.
func (r *jjRepository) branchExists(ctx context.Context, name string) (bool, error) {
	return r.branchExistsLocally(ctx, name)
}

// branchRemotes lists remotes that track name, via `jj bookmark list
// --all-remotes`'s "name@remote: commit" lines.
func (r *jjRepository) branchRemotes(ctx context.Context, name string) ([]string, error) {
	out, err := r.run(ctx, "bookmark", "list", "--all-remotes")
	if err != nil {
		return nil, err
	}
	var remotes []string
	prefix := name + "@"
	for _, line := range splitLines(out) {
		entry, _, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		if rem, ok := strings.CutPrefix(entry, prefix); ok && rem != "" {
			remotes = append(remotes, rem)
		}
	}
	return remotes, nil
}

// branchUpstream returns the first tracked remote bookmark for name, or
// "" if the bookmark is untracked.
func (r *jjRepository) branchUpstream(ctx context.Context, name string) (string, error) {
	remotes, err := r.branchRemotes(ctx, name)
	if err != nil || len(remotes) == 0 {
		return "", nil
	}
	return remotes[0] + "/" + name, nil
}

// GitCommonDir returns the shared ".jj" repo-data directory, the jj
// analogue of git's common dir shared by every workspace.
func (r *jjRepository) GitCommonDir(ctx context.Context) (string, error) {
	return filepath.Join(r.root, ".jj"), nil
}

// DetectHost and FetchCIStatus: jj has no native forge integration, but
// a co-located jj/git repo could still have a GitHub/GitLab remote, so
// this reuses the same remote-URL hostname sniff as the git backend via
// `jj git remote list` (jj's only host-adjacent data) rather than the
// git-only `remote get-url origin`.
func (r *jjRepository) DetectHost(ctx context.Context) Host {
	host, _ := r.cache.host.Get("host", func() (Host, error) {
		out, err := r.run(ctx, "git", "remote", "list")
		if err != nil {
			return HostUnknown, nil
		}
		for _, line := range splitLines(out) {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				continue
			}
			if h := classifyRemoteURL(fields[1]); h != HostUnknown {
				return h, nil
			}
		}
		return HostUnknown, nil
	})
	return host
}

func (r *jjRepository) FetchCIStatus(ctx context.Context, branch string) (CIStatus, error) {
	if r.DetectHost(ctx) == HostUnknown {
		return CIStatus{State: CINoCI}, nil
	}
	// No PR/CI CLI is jj-native; a co-located repo's CI is addressed by
	// the same bookmark name on the forge, but without a git worktree
	// backing gh/glab's branch-scoped lookups this is left unfetched
	// rather than guessed at.
	return CIStatus{State: CINoCI}, nil
}

// FetchPRStatus mirrors FetchCIStatus: no jj-native PR lookup exists, so
// bookmarks never resolve to a pull request here.
func (r *jjRepository) FetchPRStatus(ctx context.Context, branch string) (*PRInfo, error) {
	return nil, nil
}

// RevParse resolves ref (a bookmark, change ID, or revset) to its full
// commit ID via jj's template language.
func (r *jjRepository) RevParse(ctx context.Context, ref string) (string, error) {
	out, err := r.run(ctx, "log", "--no-graph", "-T", "commit_id", "-r", ref)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// TreeHash has no jj CLI equivalent: jj does not expose a content
// address for a commit's tree the way git's `rev-parse rev^{tree}`
// does, so this always errors rather than fabricating one.
// classify.IsIntegrated's TreesMatch rule never fires for the jj
// backend as a result; its neighbors (SameCommit, Ancestor,
// NoAddedChanges) still do. See DESIGN.md.
func (r *jjRepository) TreeHash(ctx context.Context, rev string) (string, error) {
	return "", fmt.Errorf("tree hash not available for jj backend")
}

// IsAncestor reports whether ancestor is reachable from descendant via
// the revset membership test `ancestor & ::descendant`.
func (r *jjRepository) IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error) {
	n, err := r.countRevset(ctx, fmt.Sprintf("%s & (::%s)", ancestor, descendant))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MergeTreeWriteTree has no jj CLI equivalent: jj has no "simulate a
// merge without touching any ref or the working copy" primitive
// exposed over the CLI (jj new/merge always creates a real commit).
// classify.IsIntegrated's MergeAddsNothing rule is the last in the
// cascade and simply returns NotIntegrated for jj when the cheaper
// rules miss, rather than fabricating a merge simulation.
func (r *jjRepository) MergeTreeWriteTree(ctx context.Context, base, head string) (string, error) {
	return "", fmt.Errorf("merge-tree simulation not available for jj backend")
}

// ConfigGet/ConfigSet back worktrunk's own bookkeeping keys
// (worktrunk.marker.<branch>, etc.) using jj's own config store, which
// like git's is a layered key=value store addressable by dotted path.
func (r *jjRepository) ConfigGet(ctx context.Context, key string) (string, error) {
	out, err := r.run(ctx, "config", "get", key)
	if err != nil {
		return "", nil
	}
	return strings.TrimSpace(out), nil
}

func (r *jjRepository) ConfigSet(ctx context.Context, key, value string) error {
	_, err := r.run(ctx, "config", "set", "--repo", key, value)
	return err
}
