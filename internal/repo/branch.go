package repo

import (
	"context"
	"fmt"
	"strings"
)

// branchBackend is the minimal set of operations BranchHandle needs,
// implemented separately by the git and jj Repository backends (git
// refs/heads + refs/remotes, jj bookmarks + tracked remote bookmarks)
// so a single BranchHandle type serves either.
type branchBackend interface {
	branchExistsLocally(ctx context.Context, name string) (bool, error)
	branchExists(ctx context.Context, name string) (bool, error)
	branchRemotes(ctx context.Context, name string) ([]string, error)
	branchUpstream(ctx context.Context, name string) (string, error)
}

// BranchHandle is a borrowed handle for branch-specific operations.
type BranchHandle struct {
	backend branchBackend
	name    string
}

// Branch returns a handle bound to the given branch name.
func (r *gitRepository) Branch(name string) *BranchHandle {
	return &BranchHandle{backend: r, name: name}
}

// Name returns the branch name.
func (b *BranchHandle) Name() string { return b.name }

// ExistsLocally reports whether the branch exists as a local ref.
func (b *BranchHandle) ExistsLocally(ctx context.Context) (bool, error) {
	return b.backend.branchExistsLocally(ctx, b.name)
}

// Exists reports whether the branch exists locally or on the primary remote.
func (b *BranchHandle) Exists(ctx context.Context) (bool, error) {
	return b.backend.branchExists(ctx, b.name)
}

// Remotes returns the names of every remote that carries this branch.
func (b *BranchHandle) Remotes(ctx context.Context) ([]string, error) {
	return b.backend.branchRemotes(ctx, b.name)
}

// Upstream returns the tracking branch for this branch, or "" if none
// is configured.
func (b *BranchHandle) Upstream(ctx context.Context) (string, error) {
	return b.backend.branchUpstream(ctx, b.name)
}

// branchExistsLocally reports whether name exists as a local ref.
func (r *gitRepository) branchExistsLocally(ctx context.Context, name string) (bool, error) {
	_, err := r.run(ctx, "rev-parse", "--verify", "refs/heads/"+name)
	return err == nil, nil
}

// branchExists reports whether name exists locally or on the primary remote.
func (r *gitRepository) branchExists(ctx context.Context, name string) (bool, error) {
	if ok, _ := r.branchExistsLocally(ctx, name); ok {
		return true, nil
	}
	remote, err := r.PrimaryRemote(ctx)
	if err != nil {
		return false, nil
	}
	_, err = r.run(ctx, "rev-parse", "--verify", fmt.Sprintf("refs/remotes/%s/%s", remote, name))
	return err == nil, nil
}

// branchRemotes returns the names of every remote that carries name.
func (r *gitRepository) branchRemotes(ctx context.Context, name string) ([]string, error) {
	out, err := r.run(ctx, "for-each-ref", "--format=%(refname:strip=2)", "refs/remotes/*/"+name)
	if err != nil {
		return nil, err
	}
	var remotes []string
	for _, line := range splitLines(out) {
		line = strings.TrimSpace(line)
		if rem, ok := strings.CutSuffix(line, "/"+name); ok {
			remotes = append(remotes, rem)
		}
	}
	return remotes, nil
}

// branchUpstream returns the tracking branch configured for name, or ""
// if none is configured.
func (r *gitRepository) branchUpstream(ctx context.Context, name string) (string, error) {
	out, err := r.run(ctx, "rev-parse", "--abbrev-ref", name+"@{u}")
	if err != nil {
		return "", nil // no upstream configured
	}
	return strings.TrimSpace(out), nil
}
