// Package testutil provides shared helpers for specflow tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// InitRepo creates a git repository with one commit on main in a temp
// directory and returns its path.
func InitRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("git not available: %v", err)
	}

	RunGit(t, dir, "init", "-b", "main")
	RunGit(t, dir, "config", "user.email", "test@example.com")
	RunGit(t, dir, "config", "user.name", "Test User")
	WriteFile(t, dir, "README.md", "# Test\n")
	RunGit(t, dir, "add", ".")
	RunGit(t, dir, "commit", "-m", "initial commit")
	return dir
}

// RunGit runs a git command in dir, failing the test on error.
func RunGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_DATE=2020-01-01T00:00:00Z",
		"GIT_COMMITTER_DATE=2020-01-01T00:00:00Z",
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return string(out)
}

// WriteFile writes a file under dir, failing the test on error.
func WriteFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// Commit stages everything and commits, returning the commit hash.
func Commit(t *testing.T, dir, message string) string {
	t.Helper()
	RunGit(t, dir, "add", ".")
	RunGit(t, dir, "commit", "-m", message)
	return strings.TrimSpace(RunGit(t, dir, "rev-parse", "HEAD"))
}

// CurrentBranch returns the checked out branch in dir.
func CurrentBranch(t *testing.T, dir string) string {
	t.Helper()
	return strings.TrimSpace(RunGit(t, dir, "branch", "--show-current"))
}

// AssertBranchExists fails the test if the branch doesn't exist.
func AssertBranchExists(t *testing.T, dir, branch string) {
	t.Helper()
	if strings.TrimSpace(RunGit(t, dir, "branch", "--list", branch)) == "" {
		t.Errorf("branch %q does not exist", branch)
	}
}

// AssertBranchNotExists fails the test if the branch exists.
func AssertBranchNotExists(t *testing.T, dir, branch string) {
	t.Helper()
	if strings.TrimSpace(RunGit(t, dir, "branch", "--list", branch)) != "" {
		t.Errorf("branch %q exists but should not", branch)
	}
}

// AssertWorktreeExists fails the test if no worktree lives at path.
func AssertWorktreeExists(t *testing.T, dir, path string) {
	t.Helper()
	if !strings.Contains(RunGit(t, dir, "worktree", "list", "--porcelain"), path) {
		t.Errorf("worktree %q does not exist", path)
	}
}

// AssertWorktreeNotExists fails the test if a worktree lives at path.
func AssertWorktreeNotExists(t *testing.T, dir, path string) {
	t.Helper()
	if strings.Contains(RunGit(t, dir, "worktree", "list", "--porcelain"), path) {
		t.Errorf("worktree %q exists but should not", path)
	}
}

// Chdir changes into dir for the duration of the test.
func Chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(orig); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
