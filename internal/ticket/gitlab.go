package ticket

import (
	"context"
	"fmt"
	"os"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/specflow/specflow/internal/epic"
)

// GitLab mirrors epic state onto GitLab issues. The epic's Ticket field
// holds the issue IID within the project.
type GitLab struct {
	gl      *gitlab.Client
	project string
}

// NewGitLab creates a GitLab mirror for a project path such as
// "group/project". host is empty for gitlab.com.
func NewGitLab(token, host, project string) (*GitLab, error) {
	var options []gitlab.ClientOptionFunc
	if host != "" && host != "gitlab.com" && host != "https://gitlab.com" {
		baseURL := strings.TrimSuffix(host, "/") + "/api/v4"
		options = append(options, gitlab.WithBaseURL(baseURL))
	}

	client, err := gitlab.NewClient(token, options...)
	if err != nil {
		return nil, fmt.Errorf("create gitlab client: %w", err)
	}
	return &GitLab{gl: client, project: project}, nil
}

// ResolveGitLabToken finds the GitLab token from the environment, then
// the configured value.
func ResolveGitLabToken(configToken string) (string, error) {
	if token := os.Getenv("SPECFLOW_GITLAB_TOKEN"); token != "" {
		return token, nil
	}
	if token := os.Getenv("GITLAB_TOKEN"); token != "" {
		return token, nil
	}
	if configToken != "" {
		return configToken, nil
	}
	return "", ErrNoToken
}

func (g *GitLab) UpdateStatus(ctx context.Context, e *epic.Epic) error {
	number, ok, err := issueNumber(e)
	if err != nil || !ok {
		return err
	}
	iid := int64(number)

	opts := &gitlab.UpdateIssueOptions{}
	if closedState(e.State) {
		opts.StateEvent = gitlab.Ptr("close")
	} else {
		opts.StateEvent = gitlab.Ptr("reopen")
	}
	_, _, err = g.gl.Issues.UpdateIssue(g.project, iid, opts, gitlab.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("update issue !%d: %w", iid, err)
	}
	return nil
}

func (g *GitLab) Comment(ctx context.Context, e *epic.Epic, body string) error {
	number, ok, err := issueNumber(e)
	if err != nil || !ok {
		return err
	}
	iid := int64(number)

	_, _, err = g.gl.Notes.CreateIssueNote(g.project, iid, &gitlab.CreateIssueNoteOptions{
		Body: gitlab.Ptr(body),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("comment on issue !%d: %w", iid, err)
	}
	return nil
}
