package workspace

import (
	"fmt"
	"time"
)

// nowFunc is swapped in tests for deterministic timestamps.
var nowFunc = time.Now

// ProvisionError reports a failed workspace creation.
type ProvisionError struct {
	EpicID string
	Branch string
	Reason string
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provision workspace for %s (branch %s): %s", e.EpicID, e.Branch, e.Reason)
}
