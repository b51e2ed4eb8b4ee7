package epic

import "time"

// transitionKey identifies one edge in the lifecycle graph.
type transitionKey struct {
	From State
	To   State
}

// transitionTable holds every legal edge. Resource preconditions
// (free capacity, satisfied dependencies) are the scheduler's to check;
// the table only encodes edge legality.
var transitionTable = map[transitionKey]bool{
	{StatePlanned, StateContractsLocked}:      true,
	{StateContractsLocked, StateImplementing}: true,
	{StateImplementing, StateReview}:          true,
	{StateImplementing, StateParked}:          true,
	{StateParked, StateImplementing}:          true,
	{StateReview, StateIntegrated}:            true,
	{StateReview, StateImplementing}:          true,
	{StateIntegrated, StateReleased}:          true,

	// Blocked is reachable from any pre-integration main-line state.
	{StatePlanned, StateBlocked}:         true,
	{StateContractsLocked, StateBlocked}: true,
	{StateImplementing, StateBlocked}:    true,
}

// CanTransition reports whether from -> to is a legal edge. The Blocked
// return edge depends on the epic's recorded prior state, so it is
// validated in TransitionTo rather than here.
func CanTransition(from, to State) bool {
	if from == StateBlocked {
		return transitionTable[transitionKey{to, StateBlocked}]
	}
	return transitionTable[transitionKey{from, to}]
}

// TransitionTo validates and applies a state change, updating the
// bookkeeping fields tied to each state. On error nothing is mutated.
func (e *Epic) TransitionTo(to State) error {
	from := e.State

	if !to.Valid() {
		return &InvalidTransitionError{EpicID: e.ID, From: from, To: to, Reason: "unknown state"}
	}

	if from == StateBlocked {
		// The only way out of Blocked is back to where the epic was.
		if to != e.BlockedFrom {
			return &InvalidTransitionError{
				EpicID: e.ID, From: from, To: to,
				Reason: "blocked epic can only return to " + string(e.BlockedFrom),
			}
		}
	} else if !transitionTable[transitionKey{from, to}] {
		return &InvalidTransitionError{EpicID: e.ID, From: from, To: to}
	}

	// Validation done; apply.
	e.State = to
	e.UpdatedAt = time.Now()

	if to == StateBlocked {
		e.BlockedFrom = from
	} else {
		e.BlockedFrom = ""
		e.BlockedReason = ""
	}

	// AssignedWorker is meaningful only while Implementing. The scheduler
	// sets it after a successful assign; everything leaving Implementing
	// clears it.
	if from == StateImplementing && to != StateImplementing {
		e.AssignedWorker = ""
	}

	// Park metadata is meaningful only while Parked.
	if from == StateParked && to != StateParked {
		e.ParkedReason = ""
		e.ParkedBy = ""
	}

	return nil
}
