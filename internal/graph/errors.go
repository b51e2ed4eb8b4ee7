package graph

import (
	"fmt"
	"strings"
)

// ValidationError reports a structurally invalid dependency declaration.
type ValidationError struct {
	EpicID string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("epic %s: %s", e.EpicID, e.Reason)
}

// CycleError reports a dependency cycle. Path holds the IDs forming the
// cycle in dependency order; the affected subgraph must not be scheduled.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return "dependency cycle detected"
	}
	return fmt.Sprintf("dependency cycle: %s -> %s", strings.Join(e.Path, " -> "), e.Path[0])
}
