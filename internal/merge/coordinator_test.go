package merge

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/specflow/specflow/internal/epic"
	"github.com/specflow/specflow/internal/store"
	"github.com/specflow/specflow/internal/vcs"
	"github.com/specflow/specflow/internal/workspace"
)

type fixture struct {
	git   *vcs.Git
	store *store.Store
	prov  *workspace.GitProvisioner
	coord *Coordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	runGit(t, dir, "init", "-b", "main")
	runGit(t, dir, "config", "user.email", "test@test.com")
	runGit(t, dir, "config", "user.name", "Test")
	writeFile(t, dir, "README.md", "readme\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "init")

	g, err := vcs.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	s, err := store.Open(g.Root())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.EnsureInitialized(); err != nil {
		t.Fatal(err)
	}
	prov := workspace.NewGitProvisioner(g, s, "main", nil)
	return &fixture{
		git:   g,
		store: s,
		prov:  prov,
		coord: New(g, s, prov, "main", nil),
	}
}

// addReviewEpic creates an epic in review with a workspace holding one
// committed change.
func (f *fixture) addReviewEpic(t *testing.T, id string) *epic.Epic {
	t.Helper()
	ctx := context.Background()

	e := epic.New(id, "epic", nil)
	e.State = epic.StateReview
	if err := f.store.CreateEpic(e); err != nil {
		t.Fatal(err)
	}
	rec, err := f.prov.Create(ctx, e)
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, rec.Path, id+".go", "package "+strings.ReplaceAll(id, "-", "")+"\n")
	runGit(t, rec.Path, "add", ".")
	runGit(t, rec.Path, "commit", "-m", "implement "+id)
	return e
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return string(out)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestIntegrate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addReviewEpic(t, "auth-service")

	res, err := f.coord.Integrate(ctx, "auth-service", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Commit == "" || res.AlreadyIntegrated {
		t.Fatalf("result = %+v", res)
	}
	if res.Epic.State != epic.StateIntegrated {
		t.Errorf("state = %s", res.Epic.State)
	}
	if !res.WorkspaceRemoved {
		t.Error("workspace not torn down")
	}

	// Trunk HEAD is a two-parent merge commit containing the change.
	parents := runGit(t, f.git.Root(), "log", "-1", "--format=%P")
	if len(strings.Fields(parents)) != 2 {
		t.Errorf("HEAD parents = %q, want merge commit", strings.TrimSpace(parents))
	}
	if _, err := os.Stat(filepath.Join(f.git.Root(), "auth-service.go")); err != nil {
		t.Errorf("merged file missing on trunk: %v", err)
	}
	// Fully merged branch is gone after teardown.
	if f.git.BranchExists("epic/auth-service") {
		t.Error("isolation branch survived integration")
	}
}

func TestIntegrateMessageRecordsEpic(t *testing.T) {
	f := newFixture(t)
	f.addReviewEpic(t, "auth-service")

	if _, err := f.coord.Integrate(context.Background(), "auth-service", Options{}); err != nil {
		t.Fatal(err)
	}
	subject := runGit(t, f.git.Root(), "log", "-1", "--format=%s")
	if !strings.Contains(subject, "auth-service") {
		t.Errorf("merge subject = %q", strings.TrimSpace(subject))
	}
}

func TestIntegrateAlreadyIntegrated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addReviewEpic(t, "auth-service")

	if _, err := f.coord.Integrate(ctx, "auth-service", Options{}); err != nil {
		t.Fatal(err)
	}
	headAfterFirst, _ := f.git.RevParse("HEAD")

	res, err := f.coord.Integrate(ctx, "auth-service", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.AlreadyIntegrated {
		t.Error("second integration not reported as already integrated")
	}
	head, _ := f.git.RevParse("HEAD")
	if head != headAfterFirst {
		t.Error("repeated integration moved trunk")
	}
}

func TestIntegrateWrongState(t *testing.T) {
	f := newFixture(t)
	e := epic.New("auth-service", "epic", nil)
	e.State = epic.StateImplementing
	if err := f.store.CreateEpic(e); err != nil {
		t.Fatal(err)
	}

	_, err := f.coord.Integrate(context.Background(), "auth-service", Options{})
	var ite *epic.InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("err = %v, want InvalidTransitionError", err)
	}
}

func TestIntegrateDirtyWorkspace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addReviewEpic(t, "auth-service")

	rec, _ := f.prov.Get(ctx, "auth-service")
	writeFile(t, rec.Path, "wip.go", "package wip\n")

	_, err := f.coord.Integrate(ctx, "auth-service", Options{})
	var de *DirtyWorkspaceError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want DirtyWorkspaceError", err)
	}
	if len(de.Files) != 1 || de.Files[0] != "wip.go" {
		t.Errorf("dirty files = %v", de.Files)
	}

	stored, _ := f.store.GetEpic("auth-service")
	if stored.State != epic.StateReview {
		t.Errorf("state after refused merge = %s", stored.State)
	}
}

func TestIntegrateConflictAborts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addReviewEpic(t, "auth-service")

	// Conflicting trunk edit to the same file the workspace changed.
	rec, _ := f.prov.Get(ctx, "auth-service")
	writeFile(t, rec.Path, "README.md", "workspace version\n")
	runGit(t, rec.Path, "add", ".")
	runGit(t, rec.Path, "commit", "-m", "workspace edit")
	writeFile(t, f.git.Root(), "README.md", "trunk version\n")
	runGit(t, f.git.Root(), "add", ".")
	runGit(t, f.git.Root(), "commit", "-m", "trunk edit")

	headBefore, _ := f.git.RevParse("HEAD")

	_, err := f.coord.Integrate(ctx, "auth-service", Options{})
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	if len(ce.Paths) != 1 || ce.Paths[0] != "README.md" {
		t.Errorf("conflict paths = %v", ce.Paths)
	}

	// No partial merge: trunk unchanged, epic still in review, workspace intact.
	headAfter, _ := f.git.RevParse("HEAD")
	if headAfter != headBefore {
		t.Error("trunk HEAD moved despite conflict")
	}
	stored, _ := f.store.GetEpic("auth-service")
	if stored.State != epic.StateReview {
		t.Errorf("state after conflict = %s", stored.State)
	}
	if _, err := f.prov.Get(ctx, "auth-service"); err != nil {
		t.Error("workspace torn down after failed merge")
	}
}

func TestIntegrateKeepWorkspace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addReviewEpic(t, "auth-service")

	res, err := f.coord.Integrate(ctx, "auth-service", Options{KeepWorkspace: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.WorkspaceRemoved {
		t.Error("workspace removed despite KeepWorkspace")
	}
	if _, err := f.prov.Get(ctx, "auth-service"); err != nil {
		t.Error("workspace record missing")
	}
	if !f.git.BranchExists("epic/auth-service") {
		t.Error("branch missing with KeepWorkspace")
	}
}
