// Package events provides an in-process pub/sub bus for scheduler activity.
package events

import "time"

// Type identifies event categories
type Type string

const (
	TypeStateChanged     Type = "state_changed"
	TypeEpicAssigned     Type = "epic_assigned"
	TypeEpicParked       Type = "epic_parked"
	TypeEpicResumed      Type = "epic_resumed"
	TypeEpicIntegrated   Type = "epic_integrated"
	TypeWorkspaceCreated Type = "workspace_created"
	TypeWorkspaceRemoved Type = "workspace_removed"
	TypeError            Type = "error"
)

// Event is the base event structure
type Event struct {
	Type      Type
	Timestamp time.Time
	Data      map[string]any
}

// Eventer interface for typed events
type Eventer interface {
	ToEvent() Event
}

// StateChangedEvent when an epic's lifecycle state changes
type StateChangedEvent struct {
	EpicID    string
	From      string
	To        string
	Timestamp time.Time
}

func (e StateChangedEvent) ToEvent() Event {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return Event{
		Type:      TypeStateChanged,
		Timestamp: e.Timestamp,
		Data: map[string]any{
			"epic_id": e.EpicID,
			"from":    e.From,
			"to":      e.To,
		},
	}
}

// EpicAssignedEvent when the scheduler hands an epic to a worker
type EpicAssignedEvent struct {
	EpicID    string
	Worker    string
	AutoFill  bool
	Timestamp time.Time
}

func (e EpicAssignedEvent) ToEvent() Event {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return Event{
		Type:      TypeEpicAssigned,
		Timestamp: e.Timestamp,
		Data: map[string]any{
			"epic_id":   e.EpicID,
			"worker":    e.Worker,
			"auto_fill": e.AutoFill,
		},
	}
}

// EpicParkedEvent when an epic is parked and its capacity released
type EpicParkedEvent struct {
	EpicID    string
	Reason    string
	BlockedBy string
	Timestamp time.Time
}

func (e EpicParkedEvent) ToEvent() Event {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return Event{
		Type:      TypeEpicParked,
		Timestamp: e.Timestamp,
		Data: map[string]any{
			"epic_id":    e.EpicID,
			"reason":     e.Reason,
			"blocked_by": e.BlockedBy,
		},
	}
}

// EpicResumedEvent when a parked epic returns to a worker
type EpicResumedEvent struct {
	EpicID    string
	Worker    string
	Timestamp time.Time
}

func (e EpicResumedEvent) ToEvent() Event {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return Event{
		Type:      TypeEpicResumed,
		Timestamp: e.Timestamp,
		Data: map[string]any{
			"epic_id": e.EpicID,
			"worker":  e.Worker,
		},
	}
}

// EpicIntegratedEvent when an epic's branch lands on trunk
type EpicIntegratedEvent struct {
	EpicID    string
	Branch    string
	Commit    string
	Timestamp time.Time
}

func (e EpicIntegratedEvent) ToEvent() Event {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return Event{
		Type:      TypeEpicIntegrated,
		Timestamp: e.Timestamp,
		Data: map[string]any{
			"epic_id": e.EpicID,
			"branch":  e.Branch,
			"commit":  e.Commit,
		},
	}
}

// WorkspaceCreatedEvent when an isolated workspace is provisioned
type WorkspaceCreatedEvent struct {
	EpicID    string
	Path      string
	Branch    string
	Timestamp time.Time
}

func (e WorkspaceCreatedEvent) ToEvent() Event {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return Event{
		Type:      TypeWorkspaceCreated,
		Timestamp: e.Timestamp,
		Data: map[string]any{
			"epic_id": e.EpicID,
			"path":    e.Path,
			"branch":  e.Branch,
		},
	}
}

// WorkspaceRemovedEvent when a workspace is torn down
type WorkspaceRemovedEvent struct {
	EpicID        string
	Path          string
	BranchDeleted bool
	Timestamp     time.Time
}

func (e WorkspaceRemovedEvent) ToEvent() Event {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return Event{
		Type:      TypeWorkspaceRemoved,
		Timestamp: e.Timestamp,
		Data: map[string]any{
			"epic_id":        e.EpicID,
			"path":           e.Path,
			"branch_deleted": e.BranchDeleted,
		},
	}
}

// ErrorEvent for errors surfaced through the bus
type ErrorEvent struct {
	EpicID    string
	Error     error
	Timestamp time.Time
}

func (e ErrorEvent) ToEvent() Event {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	errMsg := ""
	if e.Error != nil {
		errMsg = e.Error.Error()
	}
	return Event{
		Type:      TypeError,
		Timestamp: e.Timestamp,
		Data: map[string]any{
			"epic_id": e.EpicID,
			"error":   errMsg,
		},
	}
}
