package merge

import (
	"fmt"
	"strings"
)

// DirtyWorkspaceError means the workspace has uncommitted changes that
// would be left out of the merge.
type DirtyWorkspaceError struct {
	EpicID string
	Path   string
	Files  []string
}

func (e *DirtyWorkspaceError) Error() string {
	return fmt.Sprintf("workspace for %s has %d uncommitted file(s): %s",
		e.EpicID, len(e.Files), strings.Join(e.Files, ", "))
}

// ConflictError means the merge hit content conflicts and was aborted.
// Trunk is unchanged and the epic remains in review.
type ConflictError struct {
	EpicID string
	Branch string
	Paths  []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("merge of %s (branch %s) conflicts in: %s",
		e.EpicID, e.Branch, strings.Join(e.Paths, ", "))
}
