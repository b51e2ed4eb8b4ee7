package ticket

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/google/go-github/v67/github"
	"golang.org/x/oauth2"

	"github.com/specflow/specflow/internal/epic"
)

// GitHub mirrors epic state onto GitHub issues. The epic's Ticket field
// holds the issue number.
type GitHub struct {
	gh    *github.Client
	owner string
	repo  string
}

// NewGitHub creates a GitHub mirror for owner/repo.
func NewGitHub(token, owner, repo string) *GitHub {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)
	return &GitHub{gh: github.NewClient(tc), owner: owner, repo: repo}
}

// ResolveGitHubToken finds the GitHub token from the environment, then
// the configured value.
func ResolveGitHubToken(configToken string) (string, error) {
	if token := os.Getenv("SPECFLOW_GITHUB_TOKEN"); token != "" {
		return token, nil
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token, nil
	}
	if configToken != "" {
		return configToken, nil
	}
	return "", ErrNoToken
}

func (g *GitHub) UpdateStatus(ctx context.Context, e *epic.Epic) error {
	number, ok, err := issueNumber(e)
	if err != nil || !ok {
		return err
	}

	state := "open"
	if closedState(e.State) {
		state = "closed"
	}
	_, _, err = g.gh.Issues.Edit(ctx, g.owner, g.repo, number, &github.IssueRequest{
		State: github.String(state),
	})
	if err != nil {
		return fmt.Errorf("edit issue #%d: %w", number, err)
	}
	return nil
}

func (g *GitHub) Comment(ctx context.Context, e *epic.Epic, body string) error {
	number, ok, err := issueNumber(e)
	if err != nil || !ok {
		return err
	}

	_, _, err = g.gh.Issues.CreateComment(ctx, g.owner, g.repo, number, &github.IssueComment{
		Body: github.String(body),
	})
	if err != nil {
		return fmt.Errorf("comment on issue #%d: %w", number, err)
	}
	return nil
}

// issueNumber parses the epic's ticket reference. Epics without one are
// skipped, not errors.
func issueNumber(e *epic.Epic) (int, bool, error) {
	if e.Ticket == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(e.Ticket)
	if err != nil {
		return 0, false, fmt.Errorf("epic %s: ticket %q is not an issue number", e.ID, e.Ticket)
	}
	return n, true, nil
}
