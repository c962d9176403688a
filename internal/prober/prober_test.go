package prober

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/worktrunk/wt/internal/classify"
	"github.com/worktrunk/wt/internal/listmodel"
	"github.com/worktrunk/wt/internal/procexec"
	"github.com/worktrunk/wt/internal/repo"
	"github.com/worktrunk/wt/internal/scheduler"
)

func setupRepoWithBranch(t *testing.T) (repoPath string) {
	t.Helper()
	repoPath = t.TempDir()
	runGit(t, repoPath, "init")
	runGit(t, repoPath, "config", "user.name", "Test User")
	runGit(t, repoPath, "config", "user.email", "test@example.com")
	runGit(t, repoPath, "checkout", "-b", "main")

	writeFile(t, repoPath, "README.md", "# Test Repo\n")
	runGit(t, repoPath, "add", ".")
	runGit(t, repoPath, "commit", "-m", "initial commit")

	runGit(t, repoPath, "checkout", "-b", "feature")
	writeFile(t, repoPath, "feature.txt", "new\n")
	runGit(t, repoPath, "add", ".")
	runGit(t, repoPath, "commit", "-m", "feature work")

	runGit(t, repoPath, "checkout", "main")
	return repoPath
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %v (output: %s)", args, err, string(out))
	}
	return string(out)
}

func openRepo(t *testing.T, dir string) repo.Repository {
	t.Helper()
	runner := procexec.NewRunner(4, procexec.NewProcessManager(), nil)
	r, err := repo.Open(context.Background(), dir, runner)
	if err != nil {
		t.Fatalf("repo.Open: %v", err)
	}
	return r
}

func TestProbeAheadBehind(t *testing.T) {
	repoPath := setupRepoWithBranch(t)
	r := openRepo(t, repoPath)

	head := runGitOutput(t, repoPath, "rev-parse", "feature")
	it := listmodel.NewItem(repo.Worktree{Path: repoPath, Head: head, Branch: "feature"}, "feature", false, false)

	result, err := probeAheadBehind(context.Background(), r, it, "main")
	if err != nil {
		t.Fatalf("probeAheadBehind: %v", err)
	}
	ab, ok := result.(repo.AheadBehind)
	if !ok {
		t.Fatalf("result type = %T, want repo.AheadBehind", result)
	}
	if ab.Ahead != 1 || ab.Behind != 0 {
		t.Fatalf("AheadBehind = %+v, want {Ahead:1 Behind:0}", ab)
	}
	if !it.HasCounts || it.Ahead != 1 {
		t.Fatalf("item counts not recorded: %+v", it.Snapshot())
	}
}

func TestProbeIntegrationSameCommit(t *testing.T) {
	repoPath := setupRepoWithBranch(t)
	r := openRepo(t, repoPath)

	it := listmodel.NewItem(repo.Worktree{Path: repoPath, Branch: "main"}, "main", true, false)

	result, err := probeIntegration(context.Background(), r, it, "main")
	if err != nil {
		t.Fatalf("probeIntegration: %v", err)
	}
	if result != classify.SameCommit {
		t.Fatalf("result = %v, want SameCommit", result)
	}
	if !it.HasIntegration {
		t.Fatal("item integration not recorded")
	}
}

func TestRegistryExecuteUnknownItem(t *testing.T) {
	repoPath := setupRepoWithBranch(t)
	r := openRepo(t, repoPath)
	reg := NewRegistry(r, "main")

	_, err := reg.Execute(context.Background(), "missing", scheduler.WorkingTreeDiff)
	if err == nil {
		t.Fatal("expected error for unregistered item")
	}
}

func TestRegistryExecuteDispatches(t *testing.T) {
	repoPath := setupRepoWithBranch(t)
	r := openRepo(t, repoPath)
	reg := NewRegistry(r, "main")

	head := runGitOutput(t, repoPath, "rev-parse", "HEAD")
	it := listmodel.NewItem(repo.Worktree{Path: repoPath, Head: head, Branch: "main"}, "main", true, true)
	reg.Add(it)

	if _, err := reg.Execute(context.Background(), it.ID, scheduler.CommitDetails); err != nil {
		t.Fatalf("Execute CommitDetails: %v", err)
	}
	snap := it.Snapshot()
	if snap.CommitDetails == nil {
		t.Fatal("CommitDetails not populated via registry dispatch")
	}
}

func runGitOutput(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("git %v failed: %v", args, err)
	}
	s := string(out)
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
