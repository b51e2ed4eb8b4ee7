// Package guard protects the shared repository root. While epics hold
// unmerged work in isolated workspaces, edits made directly at the root
// risk colliding with their eventual integration; the guard detects
// where a command is running and decides whether root work is safe.
package guard

import (
	"context"
	"fmt"

	"github.com/specflow/specflow/internal/epic"
	"github.com/specflow/specflow/internal/store"
	"github.com/specflow/specflow/internal/vcs"
)

// Level is the configured protection level for root work.
type Level string

const (
	// LevelStrict refuses root work while any epic is active.
	LevelStrict Level = "strict"
	// LevelPrompt warns and defers the decision to the operator.
	LevelPrompt Level = "prompt"
	// LevelNone disables the guard.
	LevelNone Level = "none"
)

// ParseLevel validates a protection level string.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelStrict, LevelPrompt, LevelNone:
		return Level(s), nil
	}
	return "", fmt.Errorf("unknown protection level %q (want strict, prompt, or none)", s)
}

// Location describes where a command is executing relative to the
// managed repository.
type Location struct {
	// Root is the main repository root, even when called from a worktree.
	Root string
	// InWorkspace is true when the path is inside a provisioned
	// isolated workspace rather than the shared root checkout.
	InWorkspace bool
	// Workspace is the owning record when InWorkspace is true.
	Workspace *store.WorkspaceRecord
}

// Locate resolves a filesystem path to its place in the managed
// repository: the shared root checkout or a provisioned workspace.
func Locate(ctx context.Context, path string, s *store.Store) (*Location, error) {
	g, err := vcs.New(path)
	if err != nil {
		return nil, err
	}

	if !g.IsWorktree() {
		return &Location{Root: g.Root()}, nil
	}

	mainRoot, err := g.MainWorktreePath()
	if err != nil {
		return nil, err
	}
	loc := &Location{Root: mainRoot, InWorkspace: true}

	// A linked worktree we have no record of is not one of ours; report
	// it as a workspace without an owner.
	if rec, err := s.GetWorkspaceByPath(g.Root()); err == nil {
		loc.Workspace = rec
	}
	return loc, nil
}

// Action is what the caller should do with the decision.
type Action string

const (
	ActionAllow  Action = "allow"
	ActionWarn   Action = "warn"   // Surface the active epics before proceeding
	ActionRefuse Action = "refuse" // Abort
)

// Decision is the guard's verdict on working at the current location.
type Decision struct {
	Safe        bool
	Action      Action
	Reason      string
	ActiveEpics []*epic.Epic
}

// Guard evaluates root safety against the persisted epic state.
type Guard struct {
	store *store.Store
	level Level
}

// New creates a guard with the given protection level.
func New(s *store.Store, level Level) *Guard {
	return &Guard{store: s, level: level}
}

// FindActiveEpics returns the epics whose workspaces may hold unmerged
// progress: implementing, in review, or parked.
func (g *Guard) FindActiveEpics() ([]*epic.Epic, error) {
	all, err := g.store.ListEpics()
	if err != nil {
		return nil, err
	}
	var active []*epic.Epic
	for _, e := range all {
		if e.State.Active() {
			active = append(active, e)
		}
	}
	return active, nil
}

// CheckSafety decides whether work at the given location is safe. Work
// inside an isolated workspace is always safe; work at the shared root
// is judged by the protection level against the set of active epics.
// With the guard disabled the decision still warns and names the active
// epics, so a plain allow always means "nothing to collide with".
func (g *Guard) CheckSafety(ctx context.Context, loc *Location) (*Decision, error) {
	if loc.InWorkspace {
		return &Decision{Safe: true, Action: ActionAllow, Reason: "inside an isolated workspace"}, nil
	}

	active, err := g.FindActiveEpics()
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return &Decision{Safe: true, Action: ActionAllow, Reason: "no active epics"}, nil
	}

	d := &Decision{
		ActiveEpics: active,
		Reason:      fmt.Sprintf("%d active epic(s) hold unmerged work", len(active)),
	}
	switch g.level {
	case LevelNone:
		d.Safe = true
		d.Action = ActionWarn
	case LevelPrompt:
		d.Action = ActionWarn
	default:
		d.Action = ActionRefuse
	}
	return d, nil
}
