// Package scheduler enforces the WIP-bounded assignment discipline: at
// most N epics in the Implementing state at once, dependencies satisfied
// before assignment, and freed capacity immediately refilled from the
// ready queue.
package scheduler

import (
	"context"

	"github.com/specflow/specflow/internal/epic"
	"github.com/specflow/specflow/internal/events"
	"github.com/specflow/specflow/internal/graph"
	"github.com/specflow/specflow/internal/log"
	"github.com/specflow/specflow/internal/store"
	"github.com/specflow/specflow/internal/workspace"
)

// DefaultCapacity is the WIP limit used when none is configured.
const DefaultCapacity = 3

// Scheduler coordinates epic assignment against the persisted store.
// All mutations run inside the store-wide lock so concurrent CLI
// invocations observe a consistent pool.
type Scheduler struct {
	store    *store.Store
	prov     workspace.Provisioner
	capacity int
	bus      *events.Bus
}

// New creates a scheduler with the given WIP capacity. bus may be nil.
func New(s *store.Store, prov workspace.Provisioner, capacity int, bus *events.Bus) *Scheduler {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Scheduler{store: s, prov: prov, capacity: capacity, bus: bus}
}

// Capacity returns the configured WIP limit.
func (s *Scheduler) Capacity() int {
	return s.capacity
}

// AssignResult reports an assignment, including any epic the scheduler
// pulled in automatically afterwards.
type AssignResult struct {
	Epic      *epic.Epic
	Workspace *store.WorkspaceRecord
}

// Assign hands an epic to a worker. The epic must have its contracts
// locked, every dependency integrated or released, and a free WIP slot
// must exist. A workspace is provisioned before the state changes, so a
// failed provision leaves the epic assignable.
func (s *Scheduler) Assign(ctx context.Context, epicID, worker string) (*AssignResult, error) {
	var result *AssignResult
	err := s.store.WithLock(func() error {
		var err error
		result, err = s.assignLocked(ctx, epicID, worker, false)
		return err
	})
	return result, err
}

func (s *Scheduler) assignLocked(ctx context.Context, epicID, worker string, autoFill bool) (*AssignResult, error) {
	e, err := s.store.GetEpic(epicID)
	if err != nil {
		return nil, err
	}

	if e.State != epic.StateContractsLocked {
		return nil, &epic.InvalidTransitionError{
			EpicID: e.ID,
			From:   e.State,
			To:     epic.StateImplementing,
			Reason: "only epics with locked contracts can be assigned",
		}
	}

	all, err := s.store.ListEpics()
	if err != nil {
		return nil, err
	}
	byID := graph.ByID(all)
	if unmet := graph.Unsatisfied(e, byID); len(unmet) > 0 {
		return nil, &DependencyError{EpicID: e.ID, Unmet: unmet}
	}

	inFlight := countImplementing(all)
	if inFlight >= s.capacity {
		return nil, &CapacityError{Limit: s.capacity, InFlight: inFlight}
	}

	// Provision before the state write: if this fails the epic stays in
	// the ready queue untouched.
	rec, err := s.prov.Create(ctx, e)
	if err != nil {
		return nil, err
	}

	from := e.State
	if err := e.TransitionTo(epic.StateImplementing); err != nil {
		return nil, err
	}
	e.AssignedWorker = worker
	e.WorkspacePath = rec.Path
	if err := s.store.SaveEpic(e); err != nil {
		return nil, err
	}

	log.Info("epic assigned",
		log.EpicID(e.ID), log.Worker(worker), log.State(string(from), string(e.State)),
		"auto_fill", autoFill)
	if s.bus != nil {
		s.bus.Publish(events.EpicAssignedEvent{EpicID: e.ID, Worker: worker, AutoFill: autoFill})
		s.bus.Publish(events.StateChangedEvent{EpicID: e.ID, From: string(from), To: string(e.State)})
	}
	return &AssignResult{Epic: e, Workspace: rec}, nil
}

// ParkResult reports a parked epic and, when the freed slot could be
// refilled, the epic that was automatically assigned in its place.
type ParkResult struct {
	Parked       *epic.Epic
	AutoAssigned *epic.Epic
}

// Park suspends an implementing epic, releasing its WIP slot while
// preserving its workspace. blockedBy names what the epic is waiting
// on. The freed slot is refilled from the ready queue when possible,
// handed to the worker that just came free.
func (s *Scheduler) Park(ctx context.Context, epicID, reason, blockedBy string) (*ParkResult, error) {
	var result *ParkResult
	err := s.store.WithLock(func() error {
		e, err := s.store.GetEpic(epicID)
		if err != nil {
			return err
		}
		worker := e.AssignedWorker
		from := e.State
		if err := e.TransitionTo(epic.StateParked); err != nil {
			return err
		}
		e.ParkedReason = reason
		e.ParkedBy = blockedBy
		if err := s.store.SaveEpic(e); err != nil {
			return err
		}

		log.Info("epic parked", log.EpicID(e.ID), "reason", reason, "blocked_by", blockedBy)
		if s.bus != nil {
			s.bus.Publish(events.EpicParkedEvent{EpicID: e.ID, Reason: reason})
			s.bus.Publish(events.StateChangedEvent{EpicID: e.ID, From: string(from), To: string(e.State)})
		}

		result = &ParkResult{Parked: e}
		result.AutoAssigned = s.autoFillLocked(ctx, worker)
		return nil
	})
	return result, err
}

// Resume returns a parked epic to a worker, reusing its preserved
// workspace. The usual capacity check applies.
func (s *Scheduler) Resume(ctx context.Context, epicID, worker string) (*AssignResult, error) {
	var result *AssignResult
	err := s.store.WithLock(func() error {
		e, err := s.store.GetEpic(epicID)
		if err != nil {
			return err
		}
		if e.State != epic.StateParked {
			return &epic.InvalidTransitionError{
				EpicID: e.ID,
				From:   e.State,
				To:     epic.StateImplementing,
				Reason: "only parked epics can be resumed",
			}
		}

		all, err := s.store.ListEpics()
		if err != nil {
			return err
		}
		inFlight := countImplementing(all)
		if inFlight >= s.capacity {
			return &CapacityError{Limit: s.capacity, InFlight: inFlight}
		}

		rec, err := s.prov.Get(ctx, e.ID)
		if err != nil {
			// The preserved workspace is gone; provision a fresh one.
			rec, err = s.prov.Create(ctx, e)
			if err != nil {
				return err
			}
		}

		from := e.State
		if err := e.TransitionTo(epic.StateImplementing); err != nil {
			return err
		}
		e.AssignedWorker = worker
		e.WorkspacePath = rec.Path
		if err := s.store.SaveEpic(e); err != nil {
			return err
		}

		log.Info("epic resumed", log.EpicID(e.ID), log.Worker(worker))
		if s.bus != nil {
			s.bus.Publish(events.EpicResumedEvent{EpicID: e.ID, Worker: worker})
			s.bus.Publish(events.StateChangedEvent{EpicID: e.ID, From: string(from), To: string(e.State)})
		}
		result = &AssignResult{Epic: e, Workspace: rec}
		return nil
	})
	return result, err
}

// Reject sends an epic in review back to a worker for rework. Like any
// entry into Implementing it occupies a WIP slot, so the capacity check
// applies.
func (s *Scheduler) Reject(ctx context.Context, epicID, worker string) (*AssignResult, error) {
	var result *AssignResult
	err := s.store.WithLock(func() error {
		e, err := s.store.GetEpic(epicID)
		if err != nil {
			return err
		}
		if e.State != epic.StateReview {
			return &epic.InvalidTransitionError{
				EpicID: e.ID,
				From:   e.State,
				To:     epic.StateImplementing,
				Reason: "only epics in review can be rejected",
			}
		}

		all, err := s.store.ListEpics()
		if err != nil {
			return err
		}
		inFlight := countImplementing(all)
		if inFlight >= s.capacity {
			return &CapacityError{Limit: s.capacity, InFlight: inFlight}
		}

		rec, err := s.prov.Get(ctx, e.ID)
		if err != nil {
			rec, err = s.prov.Create(ctx, e)
			if err != nil {
				return err
			}
		}

		from := e.State
		if err := e.TransitionTo(epic.StateImplementing); err != nil {
			return err
		}
		e.AssignedWorker = worker
		e.WorkspacePath = rec.Path
		if err := s.store.SaveEpic(e); err != nil {
			return err
		}

		log.Info("epic rejected back to implementation", log.EpicID(e.ID), log.Worker(worker))
		if s.bus != nil {
			s.bus.Publish(events.StateChangedEvent{EpicID: e.ID, From: string(from), To: string(e.State)})
		}
		result = &AssignResult{Epic: e, Workspace: rec}
		return nil
	})
	return result, err
}

// BlockResult reports a blocked epic and any auto-filled successor.
type BlockResult struct {
	Blocked      *epic.Epic
	AutoAssigned *epic.Epic
}

// Block records an external blocker on an epic. Blocking an
// implementing epic frees its WIP slot, so the ready queue is drained
// into the freed slot the same way park and complete do.
func (s *Scheduler) Block(ctx context.Context, epicID, reason string) (*BlockResult, error) {
	var result *BlockResult
	err := s.store.WithLock(func() error {
		e, err := s.store.GetEpic(epicID)
		if err != nil {
			return err
		}
		worker := e.AssignedWorker
		from := e.State
		if err := e.TransitionTo(epic.StateBlocked); err != nil {
			return err
		}
		e.BlockedReason = reason
		if err := s.store.SaveEpic(e); err != nil {
			return err
		}

		log.Info("epic blocked", log.EpicID(e.ID), "reason", reason,
			log.State(string(from), string(e.State)))
		if s.bus != nil {
			s.bus.Publish(events.StateChangedEvent{EpicID: e.ID, From: string(from), To: string(e.State)})
		}

		result = &BlockResult{Blocked: e}
		if from == epic.StateImplementing {
			result.AutoAssigned = s.autoFillLocked(ctx, worker)
		}
		return nil
	})
	return result, err
}

// CompleteResult reports a completed epic and any auto-filled successor.
type CompleteResult struct {
	Epic         *epic.Epic
	AutoAssigned *epic.Epic
}

// Complete moves an implementing epic to review, freeing its WIP slot
// and refilling it from the ready queue.
func (s *Scheduler) Complete(ctx context.Context, epicID string) (*CompleteResult, error) {
	var result *CompleteResult
	err := s.store.WithLock(func() error {
		e, err := s.store.GetEpic(epicID)
		if err != nil {
			return err
		}
		worker := e.AssignedWorker
		from := e.State
		if err := e.TransitionTo(epic.StateReview); err != nil {
			return err
		}
		if err := s.store.SaveEpic(e); err != nil {
			return err
		}

		log.Info("epic completed", log.EpicID(e.ID), log.State(string(from), string(e.State)))
		if s.bus != nil {
			s.bus.Publish(events.StateChangedEvent{EpicID: e.ID, From: string(from), To: string(e.State)})
		}

		result = &CompleteResult{Epic: e}
		result.AutoAssigned = s.autoFillLocked(ctx, worker)
		return nil
	})
	return result, err
}

// autoFillLocked assigns the head of the ready queue to the worker
// whose slot just came free. Refill failures never fail the operation
// that freed the slot; the candidate stays in the queue.
func (s *Scheduler) autoFillLocked(ctx context.Context, worker string) *epic.Epic {
	ready, err := s.readyQueueLocked()
	if err != nil {
		log.Warn("ready queue unavailable for auto-fill", log.Err(err))
		return nil
	}
	if len(ready) == 0 {
		return nil
	}

	res, err := s.assignLocked(ctx, ready[0].ID, worker, true)
	if err != nil {
		log.Warn("auto-fill failed", log.EpicID(ready[0].ID), log.Err(err))
		return nil
	}
	return res.Epic
}

// ReadyQueue returns the epics eligible for assignment: contracts
// locked and every dependency integrated or released, in dependency
// order with creation time breaking ties.
func (s *Scheduler) ReadyQueue(ctx context.Context) ([]*epic.Epic, error) {
	var ready []*epic.Epic
	err := s.store.WithLock(func() error {
		var err error
		ready, err = s.readyQueueLocked()
		return err
	})
	return ready, err
}

func (s *Scheduler) readyQueueLocked() ([]*epic.Epic, error) {
	all, err := s.store.ListEpics()
	if err != nil {
		return nil, err
	}
	ordered, err := graph.TopologicalOrder(all)
	if err != nil {
		return nil, err
	}

	byID := graph.ByID(all)
	var ready []*epic.Epic
	for _, id := range ordered {
		e := byID[id]
		if e.State != epic.StateContractsLocked {
			continue
		}
		if graph.IsSatisfied(e, byID) {
			ready = append(ready, e)
		}
	}
	return ready, nil
}

// ListFilter narrows List output.
type ListFilter struct {
	State epic.State // Zero value matches all states
}

// List returns epics matching the filter, in creation order.
func (s *Scheduler) List(ctx context.Context, filter ListFilter) ([]*epic.Epic, error) {
	all, err := s.store.ListEpics()
	if err != nil {
		return nil, err
	}
	if filter.State == "" {
		return all, nil
	}
	var matched []*epic.Epic
	for _, e := range all {
		if e.State == filter.State {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

// Occupancy returns the number of epics currently holding WIP slots.
func (s *Scheduler) Occupancy(ctx context.Context) (int, error) {
	all, err := s.store.ListEpics()
	if err != nil {
		return 0, err
	}
	return countImplementing(all), nil
}

func countImplementing(units []*epic.Epic) int {
	n := 0
	for _, e := range units {
		if e.State == epic.StateImplementing {
			n++
		}
	}
	return n
}
