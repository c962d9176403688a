package repo

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var standardBranchNames = regexp.MustCompile(`^(main|master|trunk|develop)$`)

// DefaultBranch resolves and caches the trunk branch name, in order:
// (a) <remote>/HEAD symref, (b) remote
// ls-remote --symref HEAD, (c) init.defaultBranch, (d) first local
// branch matching main|master|trunk|develop, else error.
func (r *gitRepository) DefaultBranch(ctx context.Context) (string, error) {
	return r.cache.defaultBranch.Get("default", func() (string, error) {
		if name, err := r.defaultBranchFromLocalSymref(ctx); err == nil {
			return name, nil
		}
		if name, err := r.defaultBranchFromRemoteSymref(ctx); err == nil {
			return name, nil
		}
		if name, err := r.run(ctx, "config", "--get", "init.defaultBranch"); err == nil && strings.TrimSpace(name) != "" {
			return strings.TrimSpace(name), nil
		}
		if name, err := r.firstStandardLocalBranch(ctx); err == nil {
			return name, nil
		}
		return "", fmt.Errorf("could not determine the default branch: no remote HEAD, no init.defaultBranch, and no branch named main/master/trunk/develop")
	})
}

func (r *gitRepository) defaultBranchFromLocalSymref(ctx context.Context) (string, error) {
	remote, err := r.PrimaryRemote(ctx)
	if err != nil {
		return "", err
	}
	out, err := r.run(ctx, "symbolic-ref", "--short", "refs/remotes/"+remote+"/HEAD")
	if err != nil {
		return "", err
	}
	trimmed := strings.TrimSpace(out)
	branch := strings.TrimPrefix(trimmed, remote+"/")
	if branch == "" {
		return "", &ParseError{Message: fmt.Sprintf("empty branch name from %s/HEAD", remote)}
	}
	return branch, nil
}

func (r *gitRepository) defaultBranchFromRemoteSymref(ctx context.Context) (string, error) {
	remote, err := r.PrimaryRemote(ctx)
	if err != nil {
		return "", err
	}
	out, err := r.run(ctx, "ls-remote", "--symref", remote, "HEAD")
	if err != nil {
		return "", err
	}
	for _, line := range splitLines(out) {
		rest, ok := strings.CutPrefix(line, "ref: ")
		if !ok {
			continue
		}
		refPath, _, ok := strings.Cut(rest, "\t")
		if !ok {
			continue
		}
		if branch, ok := strings.CutPrefix(refPath, "refs/heads/"); ok {
			return branch, nil
		}
	}
	return "", &ParseError{Message: "could not find symbolic ref in ls-remote output"}
}

func (r *gitRepository) firstStandardLocalBranch(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "for-each-ref", "--format=%(refname:short)", "refs/heads/")
	if err != nil {
		return "", err
	}
	for _, line := range splitLines(out) {
		if standardBranchNames.MatchString(strings.TrimSpace(line)) {
			return strings.TrimSpace(line), nil
		}
	}
	return "", fmt.Errorf("no standard branch name found")
}
