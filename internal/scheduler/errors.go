package scheduler

import (
	"fmt"
	"strings"
)

// CapacityError means every WIP slot is occupied.
type CapacityError struct {
	Limit    int
	InFlight int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("wip limit reached: %d of %d slots occupied", e.InFlight, e.Limit)
}

// DependencyError means an epic has dependencies that are not yet
// integrated or released.
type DependencyError struct {
	EpicID string
	Unmet  []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("epic %s has unmet dependencies: %s", e.EpicID, strings.Join(e.Unmet, ", "))
}
