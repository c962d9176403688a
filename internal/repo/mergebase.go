package repo

import (
	"context"
	"strconv"
	"strings"
)

// MergeBase returns the common ancestor sha of a and b, cached under a
// sorted-tuple key since merge-base is symmetric. An empty string is
// returned (no error) for unrelated histories; callers treat that as
// "no integration".
func (r *gitRepository) MergeBase(ctx context.Context, a, b string) (string, error) {
	key := mergeBaseKey(a, b)
	return r.cache.mergeBase.Get(key, func() (string, error) {
		out, err := r.run(ctx, "merge-base", a, b)
		if err != nil {
			return "", nil
		}
		return strings.TrimSpace(out), nil
	})
}

// AheadBehind computes ahead/behind counts of head relative to base
// using the cached merge-base and two rev-list --count calls.
func (r *gitRepository) AheadBehind(ctx context.Context, base, head string) (int, int, error) {
	if cached, ok := r.GetCachedAheadBehind(base, head); ok {
		return cached.Ahead, cached.Behind, nil
	}

	mb, err := r.MergeBase(ctx, base, head)
	if err != nil {
		return 0, 0, err
	}
	if mb == "" {
		return 0, 0, nil
	}

	ahead, err := r.countRevList(ctx, mb+".."+head)
	if err != nil {
		return 0, 0, err
	}
	behind, err := r.countRevList(ctx, mb+".."+base)
	if err != nil {
		return 0, 0, err
	}

	r.cache.aheadBehind.Set(aheadBehindKey(base, head), AheadBehind{Ahead: ahead, Behind: behind})
	return ahead, behind, nil
}

func (r *gitRepository) countRevList(ctx context.Context, rangeSpec string) (int, error) {
	out, err := r.run(ctx, "rev-list", "--count", rangeSpec)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(out))
}

// GetCachedAheadBehind performs a read-only cache lookup, returning
// false if no value has been computed or batched yet.
func (r *gitRepository) GetCachedAheadBehind(base, head string) (AheadBehind, bool) {
	return r.cache.aheadBehind.Peek(aheadBehindKey(base, head))
}

func aheadBehindKey(base, head string) string {
	return base + "\x00" + head
}

// BatchAheadBehind populates the ahead-behind cache for every local
// branch in a single git invocation:
//
//	git for-each-ref --format='%(refname:lstrip=2) %(ahead-behind:BASE)' refs/heads/
//
// Requires git >= 2.36; on older git the command either errors or
// produces unparseable lines, in which case this returns an empty map
// and callers fall back to per-branch AheadBehind on demand.
func (r *gitRepository) BatchAheadBehind(ctx context.Context, base string) (map[string]AheadBehind, error) {
	format := "--format=%(refname:lstrip=2) %(ahead-behind:" + base + ")"
	out, err := r.run(ctx, "for-each-ref", format, "refs/heads/")
	if err != nil {
		return map[string]AheadBehind{}, nil
	}

	result := make(map[string]AheadBehind)
	for _, line := range splitLines(out) {
		name, ahead, behind, ok := parseAheadBehindLine(line)
		if !ok {
			continue // malformed line: skip silently
		}
		ab := AheadBehind{Ahead: ahead, Behind: behind}
		result[name] = ab
		r.cache.aheadBehind.Set(aheadBehindKey(base, name), ab)
	}
	return result, nil
}

// parseAheadBehindLine splits "name ahead behind" from the right so
// branch names containing spaces are tolerated.
func parseAheadBehindLine(line string) (name string, ahead, behind int, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return "", 0, 0, false
	}
	behindStr := fields[len(fields)-1]
	aheadStr := fields[len(fields)-2]
	name = strings.Join(fields[:len(fields)-2], " ")

	a, err := strconv.Atoi(aheadStr)
	if err != nil {
		return "", 0, 0, false
	}
	b, err := strconv.Atoi(behindStr)
	if err != nil {
		return "", 0, 0, false
	}
	return name, a, b, true
}
