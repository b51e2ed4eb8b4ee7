package vcs

import (
	"fmt"
	"strings"
)

// CreateBranchNoCheckout creates a branch at base without checking it out.
func (g *Git) CreateBranchNoCheckout(name string, base string) error {
	args := []string{"branch", name}
	if base != "" {
		args = append(args, base)
	}
	if _, err := g.run(args...); err != nil {
		return fmt.Errorf("create branch %s: %w", name, err)
	}
	return nil
}

// DeleteBranch deletes a branch. With force set, unmerged branches are
// deleted too.
func (g *Git) DeleteBranch(name string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	if _, err := g.run("branch", flag, name); err != nil {
		return fmt.Errorf("delete branch %s: %w", name, err)
	}
	return nil
}

// BranchExists checks if a local branch exists.
func (g *Git) BranchExists(name string) bool {
	_, err := g.run("rev-parse", "--verify", "refs/heads/"+name)
	return err == nil
}

// GetMergeBase returns the common ancestor of two refs.
func (g *Git) GetMergeBase(a, b string) (string, error) {
	out, err := g.run("merge-base", a, b)
	if err != nil {
		return "", fmt.Errorf("merge-base %s %s: %w", a, b, err)
	}
	return strings.TrimSpace(out), nil
}

// IsMerged checks if a branch has been fully merged into another.
func (g *Git) IsMerged(branch, into string) (bool, error) {
	mergeBase, err := g.GetMergeBase(branch, into)
	if err != nil {
		return false, err
	}
	branchHead, err := g.RevParse(branch)
	if err != nil {
		return false, err
	}
	return mergeBase == branchHead, nil
}

// MergeResult describes the outcome of MergeNoFF.
type MergeResult struct {
	Commit    string   // Merge commit hash on success
	Conflicts []string // Conflicting paths when the merge was aborted
}

// MergeNoFF merges a branch into the current branch with fast-forward
// disabled, using the given commit message. On conflict the merge is
// aborted, the working tree restored, and the conflicting paths
// returned with Conflicts set; no partial merge state survives.
func (g *Git) MergeNoFF(branch, message string) (*MergeResult, error) {
	_, err := g.run("merge", "--no-ff", "-m", message, branch)
	if err == nil {
		commit, err := g.RevParse("HEAD")
		if err != nil {
			return nil, err
		}
		return &MergeResult{Commit: commit}, nil
	}

	conflicts, cErr := g.conflictingPaths()
	if cErr != nil || len(conflicts) == 0 {
		// Not a content conflict; surface the original failure.
		return nil, fmt.Errorf("merge %s: %w", branch, err)
	}

	if _, abortErr := g.run("merge", "--abort"); abortErr != nil {
		return nil, fmt.Errorf("abort conflicted merge of %s: %w", branch, abortErr)
	}
	return &MergeResult{Conflicts: conflicts}, nil
}

// conflictingPaths lists unmerged paths during an in-progress merge.
func (g *Git) conflictingPaths() ([]string, error) {
	out, err := g.run("diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			paths = append(paths, line)
		}
	}
	return paths, nil
}

// CommitsAhead returns the number of commits on branch not in base.
func (g *Git) CommitsAhead(branch, base string) (int, error) {
	out, err := g.run("rev-list", "--count", fmt.Sprintf("%s..%s", base, branch))
	if err != nil {
		return 0, err
	}

	var count int
	if _, err := fmt.Sscanf(strings.TrimSpace(out), "%d", &count); err != nil {
		return 0, fmt.Errorf("parse rev-list count: %w", err)
	}
	return count, nil
}
