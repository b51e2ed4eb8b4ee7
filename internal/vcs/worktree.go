package vcs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Worktree represents a git worktree.
type Worktree struct {
	Path   string // Absolute path to worktree
	Branch string // Branch checked out in worktree
	Commit string // HEAD commit
	Main   bool   // Is this the main worktree
}

// ListWorktrees returns all worktrees in the repository.
func (g *Git) ListWorktrees(ctx context.Context) ([]Worktree, error) {
	out, err := g.RunContext(ctx, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("list worktrees: %w", err)
	}

	var worktrees []Worktree
	var current Worktree

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if current.Path != "" {
				worktrees = append(worktrees, current)
				current = Worktree{}
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "worktree "):
			current.Path = strings.TrimPrefix(line, "worktree ")
		case strings.HasPrefix(line, "HEAD "):
			current.Commit = strings.TrimPrefix(line, "HEAD ")
		case strings.HasPrefix(line, "branch "):
			branch := strings.TrimPrefix(line, "branch ")
			current.Branch = strings.TrimPrefix(branch, "refs/heads/")
		}
	}
	if current.Path != "" {
		worktrees = append(worktrees, current)
	}

	if len(worktrees) > 0 {
		worktrees[0].Main = true
	}
	return worktrees, nil
}

// AddWorktree creates a worktree at path with a new branch cut from base.
func (g *Git) AddWorktree(ctx context.Context, path, branch, base string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	args := []string{"worktree", "add", "-b", branch, absPath}
	if base != "" {
		args = append(args, base)
	}
	if _, err := g.RunContext(ctx, args...); err != nil {
		return fmt.Errorf("create worktree: %w", err)
	}
	return nil
}

// AddWorktreeExistingBranch creates a worktree checked out to an
// existing branch.
func (g *Git) AddWorktreeExistingBranch(ctx context.Context, path, branch string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	if _, err := g.RunContext(ctx, "worktree", "add", absPath, branch); err != nil {
		return fmt.Errorf("create worktree: %w", err)
	}
	return nil
}

// RemoveWorktree removes a worktree. With force set, uncommitted
// changes in the worktree are discarded.
func (g *Git) RemoveWorktree(ctx context.Context, path string, force bool) error {
	args := []string{"worktree", "remove", path}
	if force {
		args = []string{"worktree", "remove", "--force", path}
	}
	if _, err := g.RunContext(ctx, args...); err != nil {
		return fmt.Errorf("remove worktree: %w", err)
	}
	return nil
}

// PruneWorktrees removes stale worktree bookkeeping.
func (g *Git) PruneWorktrees(ctx context.Context) error {
	_, err := g.RunContext(ctx, "worktree", "prune")
	return err
}

// WorktreeForBranch finds the worktree checked out to a branch.
func (g *Git) WorktreeForBranch(ctx context.Context, branch string) (*Worktree, error) {
	worktrees, err := g.ListWorktrees(ctx)
	if err != nil {
		return nil, err
	}
	for _, wt := range worktrees {
		if wt.Branch == branch {
			return &wt, nil
		}
	}
	return nil, fmt.Errorf("no worktree for branch: %s", branch)
}
