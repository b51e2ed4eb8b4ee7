// Package merge lands finished epics on trunk. Integrations are
// serialized across processes by a dedicated lock, merge with
// fast-forward disabled so every epic leaves a merge commit, and abort
// cleanly on conflict with no partial state left behind.
package merge

import (
	"context"
	"fmt"

	"github.com/specflow/specflow/internal/epic"
	"github.com/specflow/specflow/internal/events"
	"github.com/specflow/specflow/internal/log"
	"github.com/specflow/specflow/internal/store"
	"github.com/specflow/specflow/internal/vcs"
	"github.com/specflow/specflow/internal/workspace"
)

// Options controls integration behavior.
type Options struct {
	// KeepWorkspace skips tearing down the epic's workspace after a
	// successful merge.
	KeepWorkspace bool
	// KeepBranch skips deleting the isolation branch during teardown.
	KeepBranch bool
}

// Result reports the outcome of an integration.
type Result struct {
	Epic              *epic.Epic
	Commit            string
	AlreadyIntegrated bool
	WorkspaceRemoved  bool
	Warning           string
}

// Coordinator merges epic branches into trunk, one at a time.
type Coordinator struct {
	git   *vcs.Git
	store *store.Store
	prov  workspace.Provisioner
	trunk string
	bus   *events.Bus
}

// New creates a coordinator operating on the root checkout. bus may be nil.
func New(g *vcs.Git, s *store.Store, prov workspace.Provisioner, trunk string, bus *events.Bus) *Coordinator {
	return &Coordinator{git: g, store: s, prov: prov, trunk: trunk, bus: bus}
}

// Integrate merges the epic's branch into trunk. The epic must be in
// review with a clean workspace. On conflict the merge is aborted, the
// epic stays in review, and trunk is untouched. Integrating an epic
// that already landed is a no-op.
func (c *Coordinator) Integrate(ctx context.Context, epicID string, opts Options) (*Result, error) {
	var result *Result
	err := store.WithLock(c.store.MergeLockPath(), func() error {
		var err error
		result, err = c.integrateLocked(ctx, epicID, opts)
		return err
	})
	return result, err
}

func (c *Coordinator) integrateLocked(ctx context.Context, epicID string, opts Options) (*Result, error) {
	e, err := c.store.GetEpic(epicID)
	if err != nil {
		return nil, err
	}

	if e.State == epic.StateIntegrated || e.State == epic.StateReleased {
		return &Result{Epic: e, AlreadyIntegrated: true}, nil
	}
	if e.State != epic.StateReview {
		return nil, &epic.InvalidTransitionError{
			EpicID: e.ID,
			From:   e.State,
			To:     epic.StateIntegrated,
			Reason: "only epics in review can be integrated",
		}
	}

	rec, err := c.prov.Get(ctx, e.ID)
	if err != nil {
		return nil, fmt.Errorf("epic %s has no workspace to integrate: %w", e.ID, err)
	}

	// Uncommitted work in the workspace would be silently left out of
	// the merge; refuse until it is committed or discarded.
	wsGit, err := vcs.New(rec.Path)
	if err != nil {
		return nil, err
	}
	dirty, err := wsGit.UncommittedFiles()
	if err != nil {
		return nil, err
	}
	if len(dirty) > 0 {
		return nil, &DirtyWorkspaceError{EpicID: e.ID, Path: rec.Path, Files: dirty}
	}

	if err := c.checkoutTrunk(); err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Integrate %s %s\n\nWorkspace: %s", e.Kind, e.ID, rec.Path)
	res, err := c.git.MergeNoFF(rec.Branch, message)
	if err != nil {
		return nil, err
	}
	if len(res.Conflicts) > 0 {
		return nil, &ConflictError{EpicID: e.ID, Branch: rec.Branch, Paths: res.Conflicts}
	}

	if err := c.store.UpdateEpic(e.ID, func(u *epic.Epic) error {
		return u.TransitionTo(epic.StateIntegrated)
	}); err != nil {
		return nil, err
	}
	e, err = c.store.GetEpic(e.ID)
	if err != nil {
		return nil, err
	}

	log.Info("epic integrated", log.EpicID(e.ID), "branch", rec.Branch, "commit", res.Commit)
	if c.bus != nil {
		c.bus.Publish(events.EpicIntegratedEvent{EpicID: e.ID, Branch: rec.Branch, Commit: res.Commit})
	}

	result := &Result{Epic: e, Commit: res.Commit}
	if !opts.KeepWorkspace {
		rm, err := c.prov.Remove(ctx, e.ID, workspace.RemoveOptions{DeleteBranch: !opts.KeepBranch})
		if err != nil {
			// The merge landed; a failed teardown is a warning, not a
			// failed integration.
			result.Warning = fmt.Sprintf("workspace teardown failed: %v", err)
			log.Warn("workspace teardown after integration", log.EpicID(e.ID), log.Err(err))
		} else {
			result.WorkspaceRemoved = true
			result.Warning = rm.Warning
			if err := c.store.UpdateEpic(e.ID, func(u *epic.Epic) error {
				u.WorkspacePath = ""
				return nil
			}); err != nil {
				return nil, err
			}
			result.Epic.WorkspacePath = ""
		}
	}
	return result, nil
}

// checkoutTrunk puts the root checkout on trunk, refusing to switch
// branches over uncommitted changes.
func (c *Coordinator) checkoutTrunk() error {
	current, err := c.git.CurrentBranch()
	if err != nil {
		return err
	}
	if current == c.trunk {
		return nil
	}

	dirty, err := c.git.HasChanges()
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("root checkout on %s has uncommitted changes; cannot switch to %s", current, c.trunk)
	}
	return c.git.Checkout(c.trunk)
}
