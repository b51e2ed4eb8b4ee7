package commands

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/specflow/specflow/internal/epic"
	"github.com/specflow/specflow/internal/graph"
	"github.com/specflow/specflow/internal/merge"
	"github.com/specflow/specflow/internal/scheduler"
	"github.com/specflow/specflow/internal/testutil"
)

func TestInitCreatesStateAndConfig(t *testing.T) {
	tc := NewTestContext(t)

	tc.MustExecute("init")
	tc.AssertStdoutContains("Initialized specflow")

	for _, rel := range []string{
		".specflow/config.yaml",
		".specflow/.env",
		".gitignore",
	} {
		if _, err := os.Stat(filepath.Join(tc.TmpDir, rel)); err != nil {
			t.Errorf("expected %s: %v", rel, err)
		}
	}
}

func TestAddRegistersEpic(t *testing.T) {
	tc := NewTestContext(t)

	tc.MustExecute("add", "auth-service", "--title", "Auth service")
	tc.AssertStdoutContains("Added epic auth-service")

	u := tc.GetEpic("auth-service")
	if u.State != epic.StatePlanned {
		t.Errorf("State = %s, want planned", u.State)
	}
	if u.Branch != "epic/auth-service" {
		t.Errorf("Branch = %s, want epic/auth-service", u.Branch)
	}
}

func TestAddUnknownDependencyFails(t *testing.T) {
	tc := NewTestContext(t)

	err := tc.Execute("add", "billing", "--depends-on", "missing")
	var verr *graph.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if ExitCode(err) != ExitFailure {
		t.Errorf("ExitCode = %d, want %d", ExitCode(err), ExitFailure)
	}
}

// A rejected --depends-on value must not bleed into later executions;
// slice flags append on repeated Set, so the reset path is load-bearing.
func TestDependsOnDoesNotLeakAcrossExecutions(t *testing.T) {
	tc := NewTestContext(t)

	if err := tc.Execute("add", "billing", "--depends-on", "missing"); err == nil {
		t.Fatal("add with unknown dependency succeeded")
	}

	tc.MustExecute("add", "auth")
	if deps := tc.GetEpic("auth").DependsOn; len(deps) != 0 {
		t.Errorf("DependsOn = %v, want none", deps)
	}
}

func TestAddCycleFails(t *testing.T) {
	tc := NewTestContext(t)
	// Seeded directly, so b's forward reference to c is not validated yet.
	tc.SeedEpic("b", epic.StatePlanned, []string{"c"})

	err := tc.Execute("add", "c", "--depends-on", "b")
	var cerr *graph.CycleError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want CycleError", err)
	}
	if ExitCode(err) != ExitFailure {
		t.Errorf("ExitCode = %d, want %d", ExitCode(err), ExitFailure)
	}
}

func TestAssignRequiresLockedContracts(t *testing.T) {
	tc := NewTestContext(t)
	tc.SeedEpic("auth", epic.StatePlanned, nil)

	err := tc.Execute("assign", "auth", "--worker", "amy")
	var terr *epic.InvalidTransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("err = %v, want InvalidTransitionError", err)
	}
	if ExitCode(err) != ExitFailure {
		t.Errorf("ExitCode = %d, want %d", ExitCode(err), ExitFailure)
	}
}

func TestLifecycleEndToEnd(t *testing.T) {
	tc := NewTestContext(t)

	tc.MustExecute("add", "auth")
	tc.MustExecute("lock-contracts", "auth")
	tc.MustExecute("assign", "auth", "--worker", "amy")
	tc.AssertStdoutContains("Assigned auth to amy")

	u := tc.GetEpic("auth")
	if u.State != epic.StateImplementing {
		t.Fatalf("State = %s, want implementing", u.State)
	}

	wsPath := filepath.Join(tc.TmpDir, "workspaces", "epic", "auth")
	testutil.AssertWorktreeExists(t, tc.TmpDir, wsPath)

	testutil.WriteFile(t, wsPath, "feature.txt", "auth feature\n")
	testutil.Commit(t, wsPath, "add auth feature")

	tc.MustExecute("complete", "auth")
	if got := tc.GetEpic("auth").State; got != epic.StateReview {
		t.Fatalf("State = %s, want review", got)
	}

	tc.ResetOutput()
	tc.MustExecute("merge", "auth")
	tc.AssertStdoutContains("Integrated auth into trunk")

	if got := tc.GetEpic("auth").State; got != epic.StateIntegrated {
		t.Fatalf("State = %s, want integrated", got)
	}
	testutil.AssertWorktreeNotExists(t, tc.TmpDir, wsPath)
	testutil.AssertBranchNotExists(t, tc.TmpDir, "epic/auth")

	tc.MustExecute("release", "auth")
	if got := tc.GetEpic("auth").State; got != epic.StateReleased {
		t.Fatalf("State = %s, want released", got)
	}
}

func TestParkAndResume(t *testing.T) {
	tc := NewTestContext(t)
	tc.SeedEpic("auth", epic.StateContractsLocked, nil)
	tc.SeedEpic("billing", epic.StateContractsLocked, nil)

	tc.MustExecute("assign", "auth", "--worker", "amy")
	tc.ResetOutput()

	tc.MustExecute("park", "auth", "--reason", "waiting on design", "--blocked-by", "design-team")
	tc.AssertStdoutContains("Parked auth")
	// The freed slot goes to the next ready epic.
	tc.AssertStdoutContains("Auto-assigned billing to amy")

	u := tc.GetEpic("auth")
	if u.State != epic.StateParked || u.ParkedReason != "waiting on design" {
		t.Fatalf("parked epic = %s/%q", u.State, u.ParkedReason)
	}
	if u.ParkedBy != "design-team" {
		t.Errorf("ParkedBy = %q, want design-team", u.ParkedBy)
	}

	// Resume needs a free slot; default capacity 3 leaves room.
	tc.MustExecute("resume", "auth", "--worker", "bo")
	if got := tc.GetEpic("auth").AssignedWorker; got != "bo" {
		t.Errorf("AssignedWorker = %s, want bo", got)
	}
}

func TestBlockAndUnblock(t *testing.T) {
	tc := NewTestContext(t)
	tc.SeedEpic("auth", epic.StateContractsLocked, nil)

	tc.MustExecute("block", "auth", "--reason", "legal review")
	u := tc.GetEpic("auth")
	if u.State != epic.StateBlocked || u.BlockedFrom != epic.StateContractsLocked {
		t.Fatalf("blocked epic = %s from %s", u.State, u.BlockedFrom)
	}

	tc.MustExecute("unblock", "auth")
	if got := tc.GetEpic("auth").State; got != epic.StateContractsLocked {
		t.Errorf("State = %s, want contracts_locked", got)
	}
}

func TestBlockImplementingEpicAutoFills(t *testing.T) {
	tc := NewTestContext(t)
	tc.SeedEpic("auth", epic.StateContractsLocked, nil)
	tc.SeedEpic("billing", epic.StateContractsLocked, nil)
	tc.MustExecute("assign", "auth", "--worker", "amy")

	tc.ResetOutput()
	tc.MustExecute("block", "auth", "--reason", "legal review")
	tc.AssertStdoutContains("Auto-assigned billing to amy")

	if got := tc.GetEpic("billing").State; got != epic.StateImplementing {
		t.Errorf("billing state = %s, freed slot was not refilled", got)
	}
}

func TestRejectSendsBackToWorker(t *testing.T) {
	tc := NewTestContext(t)
	tc.SeedEpic("auth", epic.StateContractsLocked, nil)
	tc.MustExecute("assign", "auth", "--worker", "amy")
	tc.MustExecute("complete", "auth")

	tc.ResetOutput()
	tc.MustExecute("reject", "auth", "--worker", "amy")
	tc.AssertStdoutContains("Rejected auth back to amy")
	if got := tc.GetEpic("auth").State; got != epic.StateImplementing {
		t.Errorf("State = %s, want implementing", got)
	}
}

func TestRemoveClearsWorkspaceReference(t *testing.T) {
	tc := NewTestContext(t)
	tc.SeedEpic("auth", epic.StateContractsLocked, nil)
	tc.MustExecute("assign", "auth", "--worker", "amy")
	if tc.GetEpic("auth").WorkspacePath == "" {
		t.Fatal("assign did not record a workspace path")
	}

	tc.MustExecute("remove", "auth", "--force")
	if got := tc.GetEpic("auth").WorkspacePath; got != "" {
		t.Errorf("WorkspacePath = %q after remove, want empty", got)
	}
}

func TestListFiltersAndJSON(t *testing.T) {
	tc := NewTestContext(t)
	tc.SeedEpic("auth", epic.StateContractsLocked, nil)
	tc.SeedEpic("billing", epic.StatePlanned, []string{"auth"})

	tc.MustExecute("list")
	tc.AssertStdoutContains("auth")
	tc.AssertStdoutContains("billing")

	tc.ResetOutput()
	tc.MustExecute("list", "--state", "planned")
	tc.AssertStdoutContains("billing")
	tc.AssertStdoutNotContains("Contracts Locked")

	tc.ResetOutput()
	tc.MustExecute("list", "--ready")
	tc.AssertStdoutContains("auth")
	tc.AssertStdoutNotContains("billing")

	tc.ResetOutput()
	tc.MustExecute("list", "--json")
	var items []map[string]any
	if err := json.Unmarshal(tc.StdoutBuf.Bytes(), &items); err != nil {
		t.Fatalf("unmarshal list --json: %v\n%s", err, tc.StdoutString())
	}
	if len(items) != 2 {
		t.Errorf("len(items) = %d, want 2", len(items))
	}
}

func TestStatusShowsPool(t *testing.T) {
	tc := NewTestContext(t)
	tc.SeedEpic("auth", epic.StateContractsLocked, nil)
	tc.MustExecute("assign", "auth", "--worker", "amy")

	tc.ResetOutput()
	tc.MustExecute("status")
	tc.AssertStdoutContains("1 of 3 slots occupied")
	tc.AssertStdoutContains("auth")
}

func TestCheckSafetyStrictRefuses(t *testing.T) {
	tc := NewTestContext(t)
	tc.SeedEpic("auth", epic.StateContractsLocked, nil)
	tc.MustExecute("assign", "auth", "--worker", "amy")

	err := tc.Execute("check-safety")
	var serr *SafetyError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v, want SafetyError", err)
	}
	if ExitCode(err) != ExitConflict {
		t.Errorf("ExitCode = %d, want %d", ExitCode(err), ExitConflict)
	}
}

func TestCheckSafetyLevelOverride(t *testing.T) {
	tc := NewTestContext(t)
	tc.SeedEpic("auth", epic.StateContractsLocked, nil)
	tc.MustExecute("assign", "auth", "--worker", "amy")

	// Disabled guard proceeds but still surfaces the active epics.
	tc.ResetOutput()
	tc.MustExecute("check-safety", "--protection-level", "none")
	tc.AssertStdoutContains("active epic")
	tc.AssertStdoutContains("auth")
	tc.AssertStdoutNotContains("Safe to work here")
}

func TestCheckSafetyNoActiveEpics(t *testing.T) {
	tc := NewTestContext(t)
	tc.SeedEpic("auth", epic.StatePlanned, nil)

	tc.MustExecute("check-safety")
	tc.AssertStdoutContains("no active epics")
}

func TestVersion(t *testing.T) {
	tc := NewTestContext(t)

	tc.MustExecute("version")
	tc.AssertStdoutContains("Version")
	tc.AssertStdoutContains("dev")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain error", errors.New("boom"), ExitFailure},
		{"validation", &graph.ValidationError{EpicID: "a", Reason: "bad"}, ExitFailure},
		{"cycle", &graph.CycleError{Path: []string{"a", "b", "a"}}, ExitFailure},
		{"transition", &epic.InvalidTransitionError{EpicID: "a"}, ExitFailure},
		{"capacity", &scheduler.CapacityError{Limit: 3, InFlight: 3}, ExitFailure},
		{"merge conflict", &merge.ConflictError{EpicID: "a", Branch: "epic/a"}, ExitConflict},
		{"dirty workspace", &merge.DirtyWorkspaceError{EpicID: "a", Path: "/ws"}, ExitConflict},
		{"safety", &SafetyError{Reason: "active epics"}, ExitConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
