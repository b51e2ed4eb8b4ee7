package workspace

import (
	"context"
	"path/filepath"
	"sort"
	"sync"

	"github.com/specflow/specflow/internal/epic"
	"github.com/specflow/specflow/internal/store"
)

// Fake is an in-memory Provisioner for tests of code that schedules
// work without touching version control.
type Fake struct {
	mu      sync.Mutex
	records map[string]*store.WorkspaceRecord

	// Created and Removed log the epic IDs in call order.
	Created []string
	Removed []string

	// CreateErr, when set, is returned by Create for matching epic IDs
	// (or for all epics when the map key "*" is set).
	CreateErr map[string]error
}

// NewFake returns an empty in-memory provisioner.
func NewFake() *Fake {
	return &Fake{
		records:   make(map[string]*store.WorkspaceRecord),
		CreateErr: make(map[string]error),
	}
}

func (f *Fake) Create(ctx context.Context, e *epic.Epic) (*store.WorkspaceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.CreateErr[e.ID]; ok {
		return nil, err
	}
	if err, ok := f.CreateErr["*"]; ok {
		return nil, err
	}

	if rec, ok := f.records[e.ID]; ok {
		return rec, nil
	}

	branch := e.Branch
	if branch == "" {
		branch = epic.BranchFor(e.Kind, e.ID)
	}
	rec := &store.WorkspaceRecord{
		OwnerID:   e.ID,
		Kind:      e.Kind,
		Path:      filepath.Join("workspaces", e.Kind, e.ID),
		Branch:    branch,
		CreatedAt: nowFunc(),
	}
	f.records[e.ID] = rec
	f.Created = append(f.Created, e.ID)
	return rec, nil
}

func (f *Fake) Remove(ctx context.Context, epicID string, opts RemoveOptions) (*RemoveResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.records[epicID]; !ok {
		return nil, &store.NotFoundError{Kind: "workspace", ID: epicID}
	}
	delete(f.records, epicID)
	f.Removed = append(f.Removed, epicID)
	return &RemoveResult{BranchDeleted: opts.DeleteBranch}, nil
}

func (f *Fake) Get(ctx context.Context, epicID string) (*store.WorkspaceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[epicID]
	if !ok {
		return nil, &store.NotFoundError{Kind: "workspace", ID: epicID}
	}
	return rec, nil
}

func (f *Fake) List(ctx context.Context) ([]*store.WorkspaceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	records := make([]*store.WorkspaceRecord, 0, len(f.records))
	for _, rec := range f.records {
		records = append(records, rec)
	}
	sort.Slice(records, func(a, b int) bool {
		return records[a].OwnerID < records[b].OwnerID
	})
	return records, nil
}
