package repo

// ConfigGet/ConfigSet back the worktrunk.* VCS config keys:
// worktrunk.marker.<branch>, worktrunk.default-branch,
// worktrunk.history, worktrunk.hints.<name>.

import "context"

// ConfigGet reads a single-valued git config key. An unset key returns
// "" with no error, matching `git config --get`'s exit-1-means-unset
// convention rather than surfacing it as a CommandFailed.
func (r *gitRepository) ConfigGet(ctx context.Context, key string) (string, error) {
	out, err := r.run(ctx, "config", "--get", key)
	if err != nil {
		return "", nil
	}
	return out, nil
}

// ConfigSet writes a single-valued git config key.
func (r *gitRepository) ConfigSet(ctx context.Context, key, value string) error {
	_, err := r.run(ctx, "config", "--replace-all", key, value)
	return err
}
