package repo

import (
	"context"
	"testing"
)

func TestDetectHost(t *testing.T) {
	tests := []struct {
		name      string
		remoteURL string
		want      Host
	}{
		{"github ssh", "git@github.com:owner/repo.git", HostGitHub},
		{"github https", "https://github.com/owner/repo.git", HostGitHub},
		{"gitlab ssh", "git@gitlab.com:owner/repo.git", HostGitLab},
		{"self-hosted gitlab", "https://gitlab.example.com/owner/repo.git", HostGitLab},
		{"unknown host", "https://example.com/owner/repo.git", HostUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repoPath := setupTestRepo(t)
			runGit(t, repoPath, "remote", "add", "origin", tt.remoteURL)

			r := openTestRepo(t, repoPath)
			got := r.DetectHost(context.Background())
			if got != tt.want {
				t.Errorf("DetectHost(%q) = %v, want %v", tt.remoteURL, got, tt.want)
			}
		})
	}
}

func TestDetectHost_NoRemote(t *testing.T) {
	repoPath := setupTestRepo(t)
	r := openTestRepo(t, repoPath)

	if got := r.DetectHost(context.Background()); got != HostUnknown {
		t.Errorf("DetectHost with no remote = %v, want HostUnknown", got)
	}
}

func TestGitlabStatusToState(t *testing.T) {
	tests := []struct {
		status string
		want   CIState
	}{
		{"success", CISuccess},
		{"failed", CIFailure},
		{"canceled", CIFailure},
		{"running", CIPending},
		{"pending", CIPending},
		{"", CINoCI},
		{"something-unexpected", CINoCI},
	}
	for _, tt := range tests {
		if got := gitlabStatusToState(tt.status); got != tt.want {
			t.Errorf("gitlabStatusToState(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestFetchCIStatus_NoHost(t *testing.T) {
	repoPath := setupTestRepo(t)
	r := openTestRepo(t, repoPath)

	status, err := r.FetchCIStatus(context.Background(), "main")
	if err != nil {
		t.Fatalf("FetchCIStatus: %v", err)
	}
	if status.State != CINoCI {
		t.Errorf("State = %v, want CINoCI", status.State)
	}
}
