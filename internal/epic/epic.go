// Package epic defines the schedulable unit of work and its lifecycle
// state machine. An epic is one independently-branchable piece of work
// that moves from planning through implementation to integration on trunk.
package epic

import (
	"time"
)

// State represents a lifecycle state
type State string

const (
	// Main line states
	StatePlanned         State = "planned"          // Registered, contracts not yet frozen
	StateContractsLocked State = "contracts_locked" // Interface frozen, ready to implement
	StateImplementing    State = "implementing"     // Assigned to a worker, occupies WIP capacity
	StateReview          State = "review"           // Worker reported completion, awaiting quality gates
	StateIntegrated      State = "integrated"       // Branch merged into trunk
	StateReleased        State = "released"         // Shipped

	// Side states
	StateParked  State = "parked"  // Capacity released, workspace preserved
	StateBlocked State = "blocked" // External blocker, returns to prior state
)

// States lists every lifecycle state in display order.
var States = []State{
	StatePlanned,
	StateContractsLocked,
	StateImplementing,
	StateReview,
	StateIntegrated,
	StateReleased,
	StateParked,
	StateBlocked,
}

// Valid reports whether s is a known lifecycle state.
func (s State) Valid() bool {
	for _, known := range States {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions leave s.
func (s State) Terminal() bool {
	return s == StateReleased
}

// Active reports whether an isolated workspace may hold unmerged
// progress for an epic in this state.
func (s State) Active() bool {
	return s == StateImplementing || s == StateReview || s == StateParked
}

// DefaultKind is the unit type used when none is given.
const DefaultKind = "epic"

// Epic is one schedulable piece of work.
type Epic struct {
	ID        string   `yaml:"id"`
	Kind      string   `yaml:"kind"`
	Title     string   `yaml:"title,omitempty"`
	State     State    `yaml:"state"`
	DependsOn []string `yaml:"depends_on,omitempty"`

	// Ticket is an optional external tracker reference, e.g. an issue
	// number, mirrored on lifecycle changes.
	Ticket string `yaml:"ticket,omitempty"`

	// Set only while State == StateImplementing.
	AssignedWorker string `yaml:"assigned_worker,omitempty"`

	// Set while a workspace is provisioned for this epic.
	WorkspacePath string `yaml:"workspace_path,omitempty"`

	// Derived deterministically from Kind and ID, recorded for convenience.
	Branch string `yaml:"branch"`

	// Set only while State == StateParked. ParkedBy names what the
	// parked work is waiting on, not a worker.
	ParkedReason string `yaml:"parked_reason,omitempty"`
	ParkedBy     string `yaml:"parked_by,omitempty"`

	// Set only while State == StateBlocked; the state to return to.
	BlockedFrom   State  `yaml:"blocked_from,omitempty"`
	BlockedReason string `yaml:"blocked_reason,omitempty"`

	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`

	// Monotonic record version for optimistic concurrency in the store.
	Version int `yaml:"version"`
}

// New creates a Planned epic with a deterministic branch name.
func New(id, kind string, dependsOn []string) *Epic {
	if kind == "" {
		kind = DefaultKind
	}
	now := time.Now()
	return &Epic{
		ID:        id,
		Kind:      kind,
		State:     StatePlanned,
		DependsOn: dependsOn,
		Branch:    BranchFor(kind, id),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// BranchFor derives the isolation branch name for a unit: <kind>/<id>.
func BranchFor(kind, id string) string {
	if kind == "" {
		kind = DefaultKind
	}
	return kind + "/" + id
}

// HasDependency reports whether the epic declares a dependency on id.
func (e *Epic) HasDependency(id string) bool {
	for _, dep := range e.DependsOn {
		if dep == id {
			return true
		}
	}
	return false
}
