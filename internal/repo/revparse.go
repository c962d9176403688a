package repo

import (
	"context"
	"strings"
)

// RevParse resolves ref to a full commit sha.
func (r *gitRepository) RevParse(ctx context.Context, ref string) (string, error) {
	out, err := r.run(ctx, "rev-parse", "--verify", ref+"^{commit}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// TreeHash resolves rev to the sha of its root tree object.
func (r *gitRepository) TreeHash(ctx context.Context, rev string) (string, error) {
	out, err := r.run(ctx, "rev-parse", rev+"^{tree}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// IsAncestor reports whether ancestor is reachable from descendant.
func (r *gitRepository) IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error) {
	_, err := r.run(ctx, "merge-base", "--is-ancestor", ancestor, descendant)
	return err == nil, nil
}

// MergeTreeWriteTree simulates merging head into base and returns the
// resulting tree sha without touching the working tree or any ref,
// catching branches landed via squash or rebase merges. Heavy-ops-
// semaphore gated since `merge-tree` walks full histories on large
// repositories.
func (r *gitRepository) MergeTreeWriteTree(ctx context.Context, base, head string) (string, error) {
	out, err := r.run(ctx, "merge-tree", "--write-tree", base, head)
	if err != nil {
		return "", err
	}
	// --write-tree prints the resulting tree sha on the first line,
	// followed by conflict information on subsequent lines when present.
	lines := splitLines(out)
	if len(lines) == 0 {
		return "", &ParseError{Message: "merge-tree --write-tree produced no output"}
	}
	return strings.TrimSpace(lines[0]), nil
}
