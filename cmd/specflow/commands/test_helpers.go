package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/specflow/specflow/internal/epic"
	"github.com/specflow/specflow/internal/store"
	"github.com/specflow/specflow/internal/testutil"
)

// TestContext runs commands against a real git repository in a temp
// directory, capturing output.
type TestContext struct {
	T         *testing.T
	TmpDir    string
	Store     *store.Store
	StdoutBuf *bytes.Buffer
	StderrBuf *bytes.Buffer
}

// NewTestContext creates a git repository, chdirs into it for the
// duration of the test, and wires output capture.
func NewTestContext(t *testing.T) *TestContext {
	t.Helper()

	dir := testutil.InitRepo(t)
	testutil.Chdir(t, dir)

	return &TestContext{
		T:         t,
		TmpDir:    dir,
		Store:     testutil.NewStore(t, dir),
		StdoutBuf: &bytes.Buffer{},
		StderrBuf: &bytes.Buffer{},
	}
}

// Execute runs the root command with the given arguments. Colors are
// disabled so assertions can match plain text.
func (tc *TestContext) Execute(args ...string) error {
	resetFlags()
	rootCmd.SetOut(tc.StdoutBuf)
	rootCmd.SetErr(tc.StderrBuf)
	rootCmd.SetContext(context.Background())
	rootCmd.SetArgs(append([]string{"--no-color"}, args...))
	return rootCmd.Execute()
}

// resetFlags restores every flag to its default. Command flag values
// are package globals and would otherwise leak between executions.
// Slice flags need Replace: their Set appends after the first call.
func resetFlags() {
	for _, cmd := range rootCmd.Commands() {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if !f.Changed {
				return
			}
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		})
	}
}

// MustExecute runs the root command and fails the test on error.
func (tc *TestContext) MustExecute(args ...string) {
	tc.T.Helper()
	if err := tc.Execute(args...); err != nil {
		tc.T.Fatalf("specflow %s: %v", strings.Join(args, " "), err)
	}
}

// SeedEpic persists an epic directly in the store.
func (tc *TestContext) SeedEpic(id string, state epic.State, deps []string) *epic.Epic {
	tc.T.Helper()
	return testutil.SeedEpic(tc.T, tc.Store, id, state, deps)
}

// StdoutString returns captured stdout.
func (tc *TestContext) StdoutString() string {
	return tc.StdoutBuf.String()
}

// ResetOutput clears the captured buffers.
func (tc *TestContext) ResetOutput() {
	tc.StdoutBuf.Reset()
	tc.StderrBuf.Reset()
}

// AssertStdoutContains fails the test when stdout lacks the substring.
func (tc *TestContext) AssertStdoutContains(substr string) {
	tc.T.Helper()
	if !strings.Contains(tc.StdoutBuf.String(), substr) {
		tc.T.Errorf("stdout does not contain %q\nGot:\n%s", substr, tc.StdoutBuf.String())
	}
}

// AssertStdoutNotContains fails the test when stdout has the substring.
func (tc *TestContext) AssertStdoutNotContains(substr string) {
	tc.T.Helper()
	if strings.Contains(tc.StdoutBuf.String(), substr) {
		tc.T.Errorf("stdout should not contain %q\nGot:\n%s", substr, tc.StdoutBuf.String())
	}
}

// GetEpic loads an epic from the store, failing the test when missing.
func (tc *TestContext) GetEpic(id string) *epic.Epic {
	tc.T.Helper()
	u, err := tc.Store.GetEpic(id)
	if err != nil {
		tc.T.Fatalf("get epic %s: %v", id, err)
	}
	return u
}
