package testutil

import (
	"testing"
	"time"

	"github.com/specflow/specflow/internal/epic"
	"github.com/specflow/specflow/internal/store"
)

// NewStore opens an initialized store rooted at root.
func NewStore(t *testing.T, root string) *store.Store {
	t.Helper()
	s, err := store.Open(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.EnsureInitialized(); err != nil {
		t.Fatal(err)
	}
	return s
}

// SeedEpic persists an epic in the given state. Creation times are
// staggered by insertion order so listing order is deterministic.
func SeedEpic(t *testing.T, s *store.Store, id string, state epic.State, deps []string) *epic.Epic {
	t.Helper()
	e := epic.New(id, "epic", deps)
	e.State = state
	e.CreatedAt = nextSeedTime()
	e.UpdatedAt = e.CreatedAt
	if err := s.CreateEpic(e); err != nil {
		t.Fatal(err)
	}
	return e
}

var seedCounter int

func nextSeedTime() time.Time {
	seedCounter++
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(seedCounter) * time.Second)
}
