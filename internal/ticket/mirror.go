// Package ticket mirrors epic lifecycle changes to external issue
// trackers. The mirror is write-only: trackers receive state updates
// and comments but never drive scheduling decisions.
package ticket

import (
	"context"
	"errors"

	"github.com/specflow/specflow/internal/epic"
	"github.com/specflow/specflow/internal/log"
)

// ErrNoToken means no API token could be resolved for the tracker.
var ErrNoToken = errors.New("no tracker token found")

// Mirror pushes epic lifecycle changes to an external tracker.
type Mirror interface {
	// UpdateStatus reflects the epic's new state on its linked ticket.
	// Epics without a linked ticket are skipped silently.
	UpdateStatus(ctx context.Context, e *epic.Epic) error
	// Comment posts a note on the epic's linked ticket.
	Comment(ctx context.Context, e *epic.Epic, body string) error
}

// Noop is the mirror used when no tracker is configured.
type Noop struct{}

func (Noop) UpdateStatus(ctx context.Context, e *epic.Epic) error { return nil }

func (Noop) Comment(ctx context.Context, e *epic.Epic, body string) error { return nil }

// closedState reports whether a lifecycle state maps to a closed ticket.
func closedState(s epic.State) bool {
	return s == epic.StateIntegrated || s == epic.StateReleased
}

// Multi fans updates out to several mirrors. Failures are logged and do
// not stop delivery to the remaining mirrors; mirroring never blocks
// scheduling.
type Multi []Mirror

func (m Multi) UpdateStatus(ctx context.Context, e *epic.Epic) error {
	for _, mirror := range m {
		if err := mirror.UpdateStatus(ctx, e); err != nil {
			log.Warn("ticket status update failed", log.EpicID(e.ID), log.Err(err))
		}
	}
	return nil
}

func (m Multi) Comment(ctx context.Context, e *epic.Epic, body string) error {
	for _, mirror := range m {
		if err := mirror.Comment(ctx, e, body); err != nil {
			log.Warn("ticket comment failed", log.EpicID(e.ID), log.Err(err))
		}
	}
	return nil
}
