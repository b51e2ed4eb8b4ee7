// Package workspace provisions and tears down isolated checkouts. Each
// epic gets its own git worktree under workspaces/<kind>/<id>, bound to
// the branch derived from the epic ID, so concurrent workers never
// share a mutable checkout.
package workspace

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/specflow/specflow/internal/epic"
	"github.com/specflow/specflow/internal/events"
	"github.com/specflow/specflow/internal/log"
	"github.com/specflow/specflow/internal/store"
	"github.com/specflow/specflow/internal/vcs"
)

// RemoveOptions controls workspace teardown.
type RemoveOptions struct {
	// DeleteBranch deletes the isolation branch, but only when it has
	// been fully merged into trunk. Unmerged branches are always kept.
	DeleteBranch bool
	// Force discards uncommitted changes in the workspace copy.
	Force bool
}

// RemoveResult reports what teardown actually did.
type RemoveResult struct {
	BranchDeleted bool
	// Warning is set when a requested branch deletion was refused
	// because the branch holds unmerged work.
	Warning string
}

// Provisioner creates and destroys isolated workspaces. The scheduler
// depends on this interface; the git-backed implementation is injected
// at the CLI layer and an in-memory fake serves tests.
type Provisioner interface {
	// Create provisions a workspace for the epic. Idempotent: an
	// existing workspace for the same epic is returned unchanged.
	Create(ctx context.Context, e *epic.Epic) (*store.WorkspaceRecord, error)
	// Remove tears down the epic's workspace copy.
	Remove(ctx context.Context, epicID string, opts RemoveOptions) (*RemoveResult, error)
	// Get returns the epic's workspace record, or a store.NotFoundError.
	Get(ctx context.Context, epicID string) (*store.WorkspaceRecord, error)
	// List returns all provisioned workspaces.
	List(ctx context.Context) ([]*store.WorkspaceRecord, error)
}

const provisionLockFileName = "provision.lock"

// GitProvisioner materializes workspaces as git worktrees.
type GitProvisioner struct {
	git   *vcs.Git
	store *store.Store
	trunk string
	bus   *events.Bus
}

// NewGitProvisioner returns a worktree-backed provisioner. trunk is the
// shared mainline branch workspaces are cut from. bus may be nil.
func NewGitProvisioner(g *vcs.Git, s *store.Store, trunk string, bus *events.Bus) *GitProvisioner {
	return &GitProvisioner{git: g, store: s, trunk: trunk, bus: bus}
}

// PathFor derives the deterministic workspace directory for a unit:
// <repo-root>/workspaces/<kind>/<id>.
func (p *GitProvisioner) PathFor(kind, id string) string {
	if kind == "" {
		kind = epic.DefaultKind
	}
	return filepath.Join(p.git.Root(), "workspaces", kind, id)
}

// Create provisions a worktree for the epic, cut from the current
// trunk tip. Creation is serialized across processes because path and
// branch uniqueness is checked-then-created.
func (p *GitProvisioner) Create(ctx context.Context, e *epic.Epic) (rec *store.WorkspaceRecord, err error) {
	lockPath := filepath.Join(p.store.Dir(), provisionLockFileName)
	err = store.WithLock(lockPath, func() error {
		rec, err = p.createLocked(ctx, e)
		return err
	})
	return rec, err
}

func (p *GitProvisioner) createLocked(ctx context.Context, e *epic.Epic) (*store.WorkspaceRecord, error) {
	// Idempotence: a workspace already provisioned for this epic is
	// returned as-is.
	if existing, err := p.store.GetWorkspace(e.ID); err == nil {
		return existing, nil
	}

	branch := e.Branch
	if branch == "" {
		branch = epic.BranchFor(e.Kind, e.ID)
	}

	if p.git.BranchExists(branch) {
		return nil, &ProvisionError{
			EpicID: e.ID,
			Branch: branch,
			Reason: "branch already exists and is not owned by this epic",
		}
	}

	path := p.PathFor(e.Kind, e.ID)
	if err := p.git.AddWorktree(ctx, path, branch, p.trunk); err != nil {
		return nil, &ProvisionError{EpicID: e.ID, Branch: branch, Reason: err.Error()}
	}

	rec := &store.WorkspaceRecord{
		OwnerID:   e.ID,
		Kind:      e.Kind,
		Path:      path,
		Branch:    branch,
		CreatedAt: nowFunc(),
	}
	if err := p.store.SaveWorkspace(rec); err != nil {
		// Roll the worktree back so a failed record write does not leave
		// an orphaned checkout behind.
		if rmErr := p.git.RemoveWorktree(ctx, path, true); rmErr != nil {
			log.Warn("orphaned worktree after failed record write", log.EpicID(e.ID), log.Err(rmErr))
		}
		return nil, err
	}

	log.Debug("workspace provisioned", log.EpicID(e.ID), "path", path, "branch", branch)
	if p.bus != nil {
		p.bus.PublishAsync(events.WorkspaceCreatedEvent{EpicID: e.ID, Path: path, Branch: branch})
	}
	return rec, nil
}

// Remove tears down the workspace copy. The branch is deleted only when
// fully merged into trunk and deletion was requested; unmerged work is
// never silently discarded.
func (p *GitProvisioner) Remove(ctx context.Context, epicID string, opts RemoveOptions) (*RemoveResult, error) {
	rec, err := p.store.GetWorkspace(epicID)
	if err != nil {
		return nil, err
	}

	if err := p.git.RemoveWorktree(ctx, rec.Path, opts.Force); err != nil {
		return nil, fmt.Errorf("remove workspace %s: %w", rec.Path, err)
	}

	result := &RemoveResult{}
	if opts.DeleteBranch {
		merged, err := p.git.IsMerged(rec.Branch, p.trunk)
		if err != nil {
			return nil, fmt.Errorf("check merge state of %s: %w", rec.Branch, err)
		}
		if merged {
			if err := p.git.DeleteBranch(rec.Branch, false); err != nil {
				return nil, err
			}
			result.BranchDeleted = true
		} else {
			result.Warning = fmt.Sprintf("branch %s has unmerged commits; keeping it", rec.Branch)
			log.Warn("branch kept on teardown", log.EpicID(epicID), "branch", rec.Branch)
		}
	}

	if err := p.store.DeleteWorkspace(epicID); err != nil {
		return nil, err
	}
	if err := p.git.PruneWorktrees(ctx); err != nil {
		log.Warn("prune worktrees", log.Err(err))
	}

	if p.bus != nil {
		p.bus.PublishAsync(events.WorkspaceRemovedEvent{
			EpicID:        epicID,
			Path:          rec.Path,
			BranchDeleted: result.BranchDeleted,
		})
	}
	return result, nil
}

// Get returns the workspace record owned by an epic.
func (p *GitProvisioner) Get(ctx context.Context, epicID string) (*store.WorkspaceRecord, error) {
	return p.store.GetWorkspace(epicID)
}

// List returns all provisioned workspaces.
func (p *GitProvisioner) List(ctx context.Context) ([]*store.WorkspaceRecord, error) {
	return p.store.ListWorkspaces()
}
