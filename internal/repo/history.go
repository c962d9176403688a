package repo

import (
	"context"
	"strconv"
	"strings"
)

// CountCommits returns the number of commits in rangeSpec (e.g. "A..B").
func (r *gitRepository) CountCommits(ctx context.Context, rangeSpec string) (int, error) {
	return r.countRevList(ctx, rangeSpec)
}

// CommitTimestamp returns the committer-date Unix timestamp of rev.
func (r *gitRepository) CommitTimestamp(ctx context.Context, rev string) (int64, error) {
	out, err := r.run(ctx, "show", "-s", "--format=%ct", rev)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(strings.TrimSpace(out), 10, 64)
}

// CommitTimestamps batches CommitTimestamp over several revisions using
// a single `git show` invocation to avoid one subprocess per commit.
func (r *gitRepository) CommitTimestamps(ctx context.Context, revs []string) (map[string]int64, error) {
	if len(revs) == 0 {
		return map[string]int64{}, nil
	}
	args := append([]string{"show", "-s", "--format=%H %ct"}, revs...)
	out, err := r.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	result := make(map[string]int64, len(revs))
	for _, line := range splitLines(out) {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		ts, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			continue
		}
		result[fields[0]] = ts
	}
	return result, nil
}

// CommitMessage returns the full commit message body of rev.
func (r *gitRepository) CommitMessage(ctx context.Context, rev string) (string, error) {
	return r.run(ctx, "show", "-s", "--format=%B", rev)
}

// CommitSubjects returns one subject line per commit in rangeSpec,
// most recent first.
func (r *gitRepository) CommitSubjects(ctx context.Context, rangeSpec string) ([]string, error) {
	out, err := r.run(ctx, "log", "--format=%s", rangeSpec)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// RecentCommitSubjects returns up to n subjects reachable from rev.
func (r *gitRepository) RecentCommitSubjects(ctx context.Context, rev string, n int) ([]string, error) {
	out, err := r.run(ctx, "log", "--format=%s", "-n", strconv.Itoa(n), rev)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}
