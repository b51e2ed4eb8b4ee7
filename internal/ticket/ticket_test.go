package ticket

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-github/v67/github"

	"github.com/specflow/specflow/internal/epic"
)

type stubMirror struct {
	updates  int
	comments int
	err      error
}

func (s *stubMirror) UpdateStatus(ctx context.Context, e *epic.Epic) error {
	s.updates++
	return s.err
}

func (s *stubMirror) Comment(ctx context.Context, e *epic.Epic, body string) error {
	s.comments++
	return s.err
}

func TestIssueNumber(t *testing.T) {
	e := epic.New("auth-service", "epic", nil)

	if _, ok, err := issueNumber(e); ok || err != nil {
		t.Errorf("unlinked epic: ok=%v err=%v", ok, err)
	}

	e.Ticket = "42"
	n, ok, err := issueNumber(e)
	if err != nil || !ok || n != 42 {
		t.Errorf("n=%d ok=%v err=%v", n, ok, err)
	}

	e.Ticket = "GH-42"
	if _, _, err := issueNumber(e); err == nil {
		t.Error("non-numeric ticket accepted")
	}
}

func TestClosedState(t *testing.T) {
	closed := map[epic.State]bool{
		epic.StateIntegrated: true,
		epic.StateReleased:   true,
	}
	for _, s := range epic.States {
		if closedState(s) != closed[s] {
			t.Errorf("closedState(%s) = %v", s, closedState(s))
		}
	}
}

func TestMultiContinuesPastFailures(t *testing.T) {
	failing := &stubMirror{err: errors.New("api down")}
	healthy := &stubMirror{}
	m := Multi{failing, healthy}

	e := epic.New("auth-service", "epic", nil)
	e.Ticket = "7"

	if err := m.UpdateStatus(context.Background(), e); err != nil {
		t.Errorf("multi surfaced mirror failure: %v", err)
	}
	if healthy.updates != 1 {
		t.Error("second mirror not reached after first failed")
	}

	if err := m.Comment(context.Background(), e, "parked"); err != nil {
		t.Errorf("multi surfaced comment failure: %v", err)
	}
	if healthy.comments != 1 {
		t.Error("comment not fanned out")
	}
}

func TestNoop(t *testing.T) {
	var m Mirror = Noop{}
	e := epic.New("auth-service", "epic", nil)
	if err := m.UpdateStatus(context.Background(), e); err != nil {
		t.Fatal(err)
	}
}

func TestGitHubUpdateStatusClosesIntegrated(t *testing.T) {
	var gotMethod, gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"number": 7}`))
	}))
	defer srv.Close()

	client := github.NewClient(nil)
	base, err := url.Parse(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	client.BaseURL = base
	m := &GitHub{gh: client, owner: "specflow", repo: "specflow"}

	e := epic.New("auth-service", "epic", nil)
	e.Ticket = "7"
	e.State = epic.StateIntegrated

	if err := m.UpdateStatus(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	if gotMethod != http.MethodPatch || gotPath != "/repos/specflow/specflow/issues/7" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
	if !strings.Contains(gotBody, `"state":"closed"`) {
		t.Errorf("body = %s, want closed state", gotBody)
	}
}

func TestGitLabUpdateStatusReopens(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 7, "iid": 7}`))
	}))
	defer srv.Close()

	m, err := NewGitLab("token", srv.URL, "group/project")
	if err != nil {
		t.Fatal(err)
	}

	e := epic.New("auth-service", "epic", nil)
	e.Ticket = "7"
	e.State = epic.StateImplementing

	if err := m.UpdateStatus(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	if gotMethod != http.MethodPut || !strings.HasSuffix(gotPath, "/issues/7") {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
}

func TestResolveGitHubToken(t *testing.T) {
	t.Setenv("SPECFLOW_GITHUB_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "")

	if _, err := ResolveGitHubToken(""); !errors.Is(err, ErrNoToken) {
		t.Errorf("err = %v, want ErrNoToken", err)
	}
	if tok, _ := ResolveGitHubToken("from-config"); tok != "from-config" {
		t.Errorf("token = %q", tok)
	}

	t.Setenv("GITHUB_TOKEN", "from-env")
	if tok, _ := ResolveGitHubToken("from-config"); tok != "from-env" {
		t.Errorf("token = %q, env should win", tok)
	}
	t.Setenv("SPECFLOW_GITHUB_TOKEN", "from-specflow-env")
	if tok, _ := ResolveGitHubToken(""); tok != "from-specflow-env" {
		t.Errorf("token = %q, specflow env should win", tok)
	}
}
