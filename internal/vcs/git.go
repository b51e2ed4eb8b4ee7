// Package vcs provides the git operations behind workspace isolation:
// branch management, worktree provisioning, and trunk merges. All
// operations shell out to git scoped to a repository root.
//
// Thread safety: Git methods hold no mutable state and are safe for
// concurrent use; serialization of conflicting git operations (worktree
// creation, trunk merges) is the callers' responsibility.
package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Git provides git operations for a repository
type Git struct {
	repoRoot string
}

// New creates a Git instance for the repository containing path.
func New(path string) (*Git, error) {
	root, err := findRepoRoot(path)
	if err != nil {
		return nil, err
	}
	return &Git{repoRoot: root}, nil
}

// Root returns the repository root path
func (g *Git) Root() string {
	return g.repoRoot
}

// IsRepo checks if the path is inside a git repository
func IsRepo(path string) bool {
	_, err := findRepoRoot(path)
	return err == nil
}

func findRepoRoot(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	out, err := runGitCommand(context.Background(), absPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not a git repository: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// CurrentBranch returns the current branch name
func (g *Git) CurrentBranch() (string, error) {
	out, err := g.run("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("get current branch: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// RevParse resolves a git reference to a commit hash
func (g *Git) RevParse(ref string) (string, error) {
	out, err := g.run("rev-parse", ref)
	if err != nil {
		return "", fmt.Errorf("rev-parse %s: %w", ref, err)
	}
	return strings.TrimSpace(out), nil
}

// UncommittedFiles returns the paths with uncommitted modifications
// (staged or not), parsed from porcelain status.
func (g *Git) UncommittedFiles() ([]string, error) {
	out, err := g.run("status", "--porcelain", "-z")
	if err != nil {
		return nil, fmt.Errorf("git status: %w", err)
	}
	if out == "" {
		return nil, nil
	}

	var files []string
	entries := strings.Split(strings.TrimSuffix(out, "\x00"), "\x00")
	for i := 0; i < len(entries); i++ {
		entry := entries[i]
		// Entries are "XY path".
		if len(entry) < 4 {
			continue
		}
		files = append(files, entry[3:])
		// Renames and copies carry the original path as a bare
		// follow-up record; report the current path only.
		if strings.ContainsAny(entry[:2], "RC") {
			i++
		}
	}
	return files, nil
}

// HasChanges returns true if there are uncommitted changes
func (g *Git) HasChanges() (bool, error) {
	files, err := g.UncommittedFiles()
	if err != nil {
		return false, err
	}
	return len(files) > 0, nil
}

// Add stages files for commit
func (g *Git) Add(paths ...string) error {
	args := append([]string{"add"}, paths...)
	if _, err := g.run(args...); err != nil {
		return fmt.Errorf("git add: %w", err)
	}
	return nil
}

// Commit creates a commit with the given message and returns its hash.
func (g *Git) Commit(message string) (string, error) {
	if _, err := g.run("commit", "-m", message); err != nil {
		return "", fmt.Errorf("git commit: %w", err)
	}
	return g.RevParse("HEAD")
}

// Checkout switches to a branch or ref
func (g *Git) Checkout(ref string) error {
	if _, err := g.run("checkout", ref); err != nil {
		return fmt.Errorf("git checkout %s: %w", ref, err)
	}
	return nil
}

// IsWorktree returns true if the repository root is a linked worktree
// rather than the main checkout. Worktrees have .git as a file pointing
// at the main repository.
func (g *Git) IsWorktree() bool {
	info, err := os.Stat(filepath.Join(g.repoRoot, ".git"))
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// MainWorktreePath returns the main repository root when called from
// inside a linked worktree.
func (g *Git) MainWorktreePath() (string, error) {
	if !g.IsWorktree() {
		return "", fmt.Errorf("not in a worktree")
	}

	out, err := g.run("rev-parse", "--git-common-dir")
	if err != nil {
		return "", fmt.Errorf("get git common dir: %w", err)
	}

	gitCommonDir := strings.TrimSpace(out)
	if !filepath.IsAbs(gitCommonDir) {
		gitCommonDir = filepath.Join(g.repoRoot, gitCommonDir)
	}
	gitCommonDir, err = filepath.Abs(gitCommonDir)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}
	return filepath.Dir(gitCommonDir), nil
}

// run executes a git command in the repo root.
func (g *Git) run(args ...string) (string, error) {
	return runGitCommand(context.Background(), g.repoRoot, args...)
}

// RunContext executes a git command with context
func (g *Git) RunContext(ctx context.Context, args ...string) (string, error) {
	return runGitCommand(ctx, g.repoRoot, args...)
}

func runGitCommand(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := stderr.String()
		if errMsg == "" {
			errMsg = err.Error()
		}
		return "", fmt.Errorf("%s", strings.TrimSpace(errMsg))
	}
	return stdout.String(), nil
}
