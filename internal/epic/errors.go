package epic

import "fmt"

// InvalidTransitionError reports an illegal lifecycle edge. The epic is
// left untouched when this is returned.
type InvalidTransitionError struct {
	EpicID string
	From   State
	To     State
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("epic %s: invalid transition %s -> %s: %s", e.EpicID, e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("epic %s: invalid transition %s -> %s", e.EpicID, e.From, e.To)
}
