// Package store is the authoritative persisted state behind the
// scheduler: one YAML record per epic and per workspace, addressable by
// ID. All mutations go through an exclusive cross-process lock plus a
// per-record version check, so concurrent assign/park/integrate calls
// from independent processes cannot silently race.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/specflow/specflow/internal/epic"
)

const (
	storeDirName      = ".specflow"
	epicsDirName      = "epics"
	workspacesDirName = "workspaces"
	lockFileName      = "lock"
	mergeLockFileName = "merge.lock"
)

// WorkspaceRecord describes one provisioned isolated workspace.
type WorkspaceRecord struct {
	OwnerID   string    `yaml:"owner_id"`
	Kind      string    `yaml:"kind"`
	Path      string    `yaml:"path"`
	Branch    string    `yaml:"branch"`
	CreatedAt time.Time `yaml:"created_at"`
}

// Store persists epics and workspace records under <root>/.specflow.
type Store struct {
	root string
	dir  string
}

// Open returns a store rooted at the given repository root. The
// directory layout is created lazily by EnsureInitialized.
func Open(root string) (*Store, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	return &Store{
		root: absRoot,
		dir:  filepath.Join(absRoot, storeDirName),
	}, nil
}

// Root returns the repository root path.
func (s *Store) Root() string {
	return s.root
}

// Dir returns the .specflow directory path.
func (s *Store) Dir() string {
	return s.dir
}

// LockPath returns the path of the store-wide mutation lock.
func (s *Store) LockPath() string {
	return filepath.Join(s.dir, lockFileName)
}

// MergeLockPath returns the path of the global trunk-merge lock.
func (s *Store) MergeLockPath() string {
	return filepath.Join(s.dir, mergeLockFileName)
}

// EnsureInitialized creates the record directories.
func (s *Store) EnsureInitialized() error {
	for _, dir := range []string{
		filepath.Join(s.dir, epicsDirName),
		filepath.Join(s.dir, workspacesDirName),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create store directories: %w", err)
		}
	}
	return nil
}

// UpdateGitignore adds the specflow state directory and the workspace
// checkout area to the repository's .gitignore. Existing entries are
// kept as-is.
func (s *Store) UpdateGitignore() error {
	path := filepath.Join(s.root, ".gitignore")
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read .gitignore: %w", err)
	}

	content := string(existing)
	lines := make(map[string]bool)
	for _, line := range strings.Split(content, "\n") {
		lines[strings.TrimSpace(line)] = true
	}

	var missing []string
	for _, entry := range []string{storeDirName + "/", workspacesDirName + "/"} {
		if !lines[entry] && !lines[strings.TrimSuffix(entry, "/")] {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += strings.Join(missing, "\n") + "\n"
	return os.WriteFile(path, []byte(content), 0o644)
}

// WithLock runs fn while holding the store-wide exclusive lock. Every
// multi-record mutation (assign, park, resume, integrate) runs inside
// one of these critical sections.
func (s *Store) WithLock(fn func() error) error {
	return WithLock(s.LockPath(), fn)
}

func (s *Store) epicPath(id string) string {
	return filepath.Join(s.dir, epicsDirName, id+".yaml")
}

func (s *Store) workspacePath(ownerID string) string {
	return filepath.Join(s.dir, workspacesDirName, ownerID+".yaml")
}

// CreateEpic persists a new epic record. Fails if the ID is taken.
func (s *Store) CreateEpic(e *epic.Epic) error {
	if err := s.EnsureInitialized(); err != nil {
		return err
	}
	path := s.epicPath(e.ID)
	if _, err := os.Stat(path); err == nil {
		return &AlreadyExistsError{Kind: "epic", ID: e.ID}
	}
	e.Version = 1
	return writeYAML(path, e)
}

// GetEpic loads one epic record.
func (s *Store) GetEpic(id string) (*epic.Epic, error) {
	var e epic.Epic
	if err := readYAML(s.epicPath(id), &e); err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Kind: "epic", ID: id}
		}
		return nil, fmt.Errorf("read epic %s: %w", id, err)
	}
	return &e, nil
}

// SaveEpic writes an epic record back, enforcing optimistic
// concurrency: the on-disk version must match the version the caller
// loaded. On success the stored version is bumped.
func (s *Store) SaveEpic(e *epic.Epic) error {
	current, err := s.GetEpic(e.ID)
	if err != nil {
		return err
	}
	if current.Version != e.Version {
		return &VersionConflictError{ID: e.ID, Loaded: e.Version, Stored: current.Version}
	}
	e.Version++
	if err := writeYAML(s.epicPath(e.ID), e); err != nil {
		e.Version--
		return err
	}
	return nil
}

// UpdateEpic applies fn to a freshly loaded record under the store
// lock and saves the result. Version conflicts are retried, matching
// the read-version/write-if-unchanged discipline.
func (s *Store) UpdateEpic(id string, fn func(*epic.Epic) error) error {
	return s.WithLock(func() error {
		return s.updateEpicLocked(id, fn)
	})
}

// updateEpicLocked is UpdateEpic without lock acquisition, for callers
// already inside WithLock.
func (s *Store) updateEpicLocked(id string, fn func(*epic.Epic) error) error {
	const maxRetries = 3
	var lastErr error
	for range maxRetries {
		e, err := s.GetEpic(id)
		if err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
		err = s.SaveEpic(e)
		if err == nil {
			return nil
		}
		var vc *VersionConflictError
		if !errors.As(err, &vc) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// ListEpics returns all epic records ordered by CreatedAt, then ID.
func (s *Store) ListEpics() ([]*epic.Epic, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, epicsDirName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list epics: %w", err)
	}

	var units []*epic.Epic
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".yaml")
		e, err := s.GetEpic(id)
		if err != nil {
			return nil, err
		}
		units = append(units, e)
	}

	sort.Slice(units, func(a, b int) bool {
		if !units[a].CreatedAt.Equal(units[b].CreatedAt) {
			return units[a].CreatedAt.Before(units[b].CreatedAt)
		}
		return units[a].ID < units[b].ID
	})
	return units, nil
}

// SaveWorkspace records a provisioned workspace, keyed by owner.
func (s *Store) SaveWorkspace(rec *WorkspaceRecord) error {
	if err := s.EnsureInitialized(); err != nil {
		return err
	}
	return writeYAML(s.workspacePath(rec.OwnerID), rec)
}

// GetWorkspace loads the workspace record owned by an epic.
func (s *Store) GetWorkspace(ownerID string) (*WorkspaceRecord, error) {
	var rec WorkspaceRecord
	if err := readYAML(s.workspacePath(ownerID), &rec); err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Kind: "workspace", ID: ownerID}
		}
		return nil, fmt.Errorf("read workspace %s: %w", ownerID, err)
	}
	return &rec, nil
}

// GetWorkspaceByPath finds the workspace record for a filesystem path.
func (s *Store) GetWorkspaceByPath(path string) (*WorkspaceRecord, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	records, err := s.ListWorkspaces()
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.Path == abs {
			return rec, nil
		}
	}
	return nil, &NotFoundError{Kind: "workspace", ID: abs}
}

// ListWorkspaces returns all workspace records ordered by CreatedAt.
func (s *Store) ListWorkspaces() ([]*WorkspaceRecord, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, workspacesDirName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list workspaces: %w", err)
	}

	var records []*WorkspaceRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".yaml")
		rec, err := s.GetWorkspace(id)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(a, b int) bool {
		if !records[a].CreatedAt.Equal(records[b].CreatedAt) {
			return records[a].CreatedAt.Before(records[b].CreatedAt)
		}
		return records[a].OwnerID < records[b].OwnerID
	})
	return records, nil
}

// DeleteWorkspace removes a workspace record. Missing records are not
// an error: teardown is idempotent.
func (s *Store) DeleteWorkspace(ownerID string) error {
	err := os.Remove(s.workspacePath(ownerID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete workspace record %s: %w", ownerID, err)
	}
	return nil
}

// writeYAML marshals v and writes it atomically (temp file + rename).
func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", filepath.Base(path), err)
	}
	return nil
}
