package store

import "fmt"

// NotFoundError reports a missing record.
type NotFoundError struct {
	Kind string // "epic" or "workspace"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s: not found", e.Kind, e.ID)
}

// AlreadyExistsError reports an ID collision on create.
type AlreadyExistsError struct {
	Kind string
	ID   string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %s: already exists", e.Kind, e.ID)
}

// VersionConflictError reports a lost optimistic-concurrency race: the
// record changed on disk between load and save.
type VersionConflictError struct {
	ID     string
	Loaded int
	Stored int
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("epic %s: version conflict (loaded %d, stored %d)", e.ID, e.Loaded, e.Stored)
}
