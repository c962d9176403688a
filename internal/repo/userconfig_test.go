package repo

import (
	"context"
	"testing"
)

func TestConfigGet_Unset(t *testing.T) {
	repoPath := setupTestRepo(t)
	r := openTestRepo(t, repoPath)

	v, err := r.ConfigGet(context.Background(), "worktrunk.marker.feature-x")
	if err != nil {
		t.Fatalf("ConfigGet: %v", err)
	}
	if v != "" {
		t.Errorf("ConfigGet on unset key = %q, want empty string", v)
	}
}

func TestConfigSet_ThenGet(t *testing.T) {
	repoPath := setupTestRepo(t)
	r := openTestRepo(t, repoPath)
	ctx := context.Background()

	if err := r.ConfigSet(ctx, "worktrunk.marker.feature-x", "needs-review"); err != nil {
		t.Fatalf("ConfigSet: %v", err)
	}

	v, err := r.ConfigGet(ctx, "worktrunk.marker.feature-x")
	if err != nil {
		t.Fatalf("ConfigGet: %v", err)
	}
	if v != "needs-review" {
		t.Errorf("ConfigGet = %q, want %q", v, "needs-review")
	}
}

func TestConfigSet_ReplacesExistingValue(t *testing.T) {
	repoPath := setupTestRepo(t)
	r := openTestRepo(t, repoPath)
	ctx := context.Background()

	if err := r.ConfigSet(ctx, "worktrunk.default-branch", "main"); err != nil {
		t.Fatalf("ConfigSet: %v", err)
	}
	if err := r.ConfigSet(ctx, "worktrunk.default-branch", "trunk"); err != nil {
		t.Fatalf("ConfigSet (replace): %v", err)
	}

	v, err := r.ConfigGet(ctx, "worktrunk.default-branch")
	if err != nil {
		t.Fatalf("ConfigGet: %v", err)
	}
	if v != "trunk" {
		t.Errorf("ConfigGet = %q, want %q", v, "trunk")
	}
}
