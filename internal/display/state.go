package display

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/specflow/specflow/internal/epic"
)

var titleCaser = cases.Title(language.English)

// StateLabel returns the human-readable label for a lifecycle state,
// e.g. "contracts_locked" becomes "Contracts Locked".
func StateLabel(s epic.State) string {
	return titleCaser.String(strings.ReplaceAll(string(s), "_", " "))
}

// ColorState returns the state label colored by lifecycle phase.
func ColorState(s epic.State) string {
	label := StateLabel(s)
	switch s {
	case epic.StatePlanned:
		return Muted(label)
	case epic.StateContractsLocked, epic.StateImplementing, epic.StateReview:
		return Info(label)
	case epic.StateIntegrated, epic.StateReleased:
		return Success(label)
	case epic.StateParked:
		return Warning(label)
	case epic.StateBlocked:
		return Error(label)
	default:
		return label
	}
}
