package repo

import (
	"context"
	"strings"
	"testing"
)

func TestParsePorcelainWorktreeList(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   []Worktree
	}{
		{
			name: "single worktree",
			input: "worktree /repo\n" +
				"HEAD abcdef1234567890abcdef1234567890abcdef12\n" +
				"branch main\n",
			want: []Worktree{
				{Path: "/repo", Head: "abcdef1234567890abcdef1234567890abcdef12", Branch: "main"},
			},
		},
		{
			name: "multiple worktrees separated by blank line",
			input: "worktree /repo\n" +
				"HEAD aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\n" +
				"branch main\n" +
				"\n" +
				"worktree /repo/.worktrees/feature\n" +
				"HEAD bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb\n" +
				"branch feature\n",
			want: []Worktree{
				{Path: "/repo", Head: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Branch: "main"},
				{Path: "/repo/.worktrees/feature", Head: "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", Branch: "feature"},
			},
		},
		{
			name: "detached head has no branch line",
			input: "worktree /repo/.worktrees/detached\n" +
				"HEAD cccccccccccccccccccccccccccccccccccccccc\n" +
				"detached\n",
			want: []Worktree{
				{Path: "/repo/.worktrees/detached", Head: "cccccccccccccccccccccccccccccccccccccccc", Detached: true},
			},
		},
		{
			name: "bare repository",
			input: "worktree /repo\n" +
				"bare\n",
			want: []Worktree{
				{Path: "/repo", Bare: true},
			},
		},
		{
			name:  "empty output",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePorcelainWorktreeList(tt.input)
			if err != nil {
				t.Fatalf("parsePorcelainWorktreeList: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d worktrees, want %d (%+v)", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i].Path != tt.want[i].Path ||
					got[i].Head != tt.want[i].Head ||
					got[i].Branch != tt.want[i].Branch ||
					got[i].Bare != tt.want[i].Bare ||
					got[i].Detached != tt.want[i].Detached {
					t.Errorf("worktree[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParsePorcelainWorktreeList_LockedAndPrunable(t *testing.T) {
	input := "worktree /repo/.worktrees/stale\n" +
		"HEAD dddddddddddddddddddddddddddddddddddddddd\n" +
		"branch refs/heads/stale\n" +
		"locked reason here\n" +
		"prunable gitdir file points to non-existent location\n"

	got, err := parsePorcelainWorktreeList(input)
	if err != nil {
		t.Fatalf("parsePorcelainWorktreeList: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d worktrees, want 1", len(got))
	}
	wt := got[0]
	if wt.Locked == nil || *wt.Locked != "reason here" {
		t.Errorf("Locked = %v, want %q", wt.Locked, "reason here")
	}
	if wt.Prunable == nil || !strings.Contains(*wt.Prunable, "non-existent") {
		t.Errorf("Prunable = %v, want a reason mentioning non-existent", wt.Prunable)
	}
}

func TestListWorktrees_Integration(t *testing.T) {
	repoPath := setupTestRepo(t)
	r := openTestRepo(t, repoPath)

	worktrees, err := r.ListWorktrees(context.Background())
	if err != nil {
		t.Fatalf("ListWorktrees: %v", err)
	}
	if len(worktrees) != 1 {
		t.Fatalf("got %d worktrees, want 1", len(worktrees))
	}
	if worktrees[0].Branch != "main" {
		t.Errorf("Branch = %q, want main", worktrees[0].Branch)
	}
}
