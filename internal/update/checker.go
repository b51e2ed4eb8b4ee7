// Package update checks GitHub releases for newer specflow versions.
package update

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v67/github"
	"golang.org/x/mod/semver"
	"golang.org/x/oauth2"
)

var (
	// ErrNoUpdateAvailable is returned when the current version is
	// already up to date.
	ErrNoUpdateAvailable = errors.New("update: no update available")

	// ErrDevBuild is returned when checking updates from a dev build.
	ErrDevBuild = errors.New("update: dev build")
)

// ReleaseInfo represents a GitHub release.
type ReleaseInfo struct {
	TagName     string // e.g. "v1.2.3"
	Name        string
	PreRelease  bool
	PublishedAt time.Time
	HTMLURL     string
	Body        string
}

// Status represents the result of an update check.
type Status struct {
	CurrentVersion string
	LatestVersion  string
	IsNewer        bool
	IsPreRelease   bool
	ReleaseURL     string
	ReleaseNotes   string
}

// CheckOptions configures the update check behavior.
type CheckOptions struct {
	CurrentVersion    string // e.g. "v1.2.3" or "dev"
	IncludePreRelease bool
}

// Checker checks for available updates from GitHub releases.
type Checker struct {
	gh    *github.Client
	owner string
	repo  string
}

// NewChecker creates an update checker. With an empty token the client
// makes unauthenticated requests, subject to rate limits.
func NewChecker(token, owner, repo string) *Checker {
	var client *github.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		client = github.NewClient(oauth2.NewClient(context.Background(), ts))
	} else {
		client = github.NewClient(nil)
	}

	if owner == "" {
		owner = "specflow"
	}
	if repo == "" {
		repo = "specflow"
	}
	return &Checker{gh: client, owner: owner, repo: repo}
}

// Check looks for a newer release. It returns ErrNoUpdateAvailable if
// the current version is up to date and ErrDevBuild for dev builds,
// whose version cannot be compared.
func (c *Checker) Check(ctx context.Context, opts CheckOptions) (*Status, error) {
	if opts.CurrentVersion == "dev" || opts.CurrentVersion == "none" || opts.CurrentVersion == "" {
		return nil, ErrDevBuild
	}

	releases, _, err := c.gh.Repositories.ListReleases(ctx, c.owner, c.repo, &github.ListOptions{
		PerPage: 10,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch releases: %w", err)
	}

	// The API returns releases newest first; the first non-draft match
	// is the latest.
	var latest *github.RepositoryRelease
	for _, r := range releases {
		if r.GetDraft() {
			continue
		}
		if !opts.IncludePreRelease && r.GetPrerelease() {
			continue
		}
		latest = r
		break
	}
	if latest == nil {
		return nil, fmt.Errorf("no suitable release found")
	}

	status := &Status{
		CurrentVersion: opts.CurrentVersion,
		LatestVersion:  latest.GetTagName(),
		IsPreRelease:   latest.GetPrerelease(),
		ReleaseURL:     latest.GetHTMLURL(),
		ReleaseNotes:   latest.GetBody(),
	}

	if semver.Compare(canonical(latest.GetTagName()), canonical(opts.CurrentVersion)) <= 0 {
		return status, ErrNoUpdateAvailable
	}
	status.IsNewer = true
	return status, nil
}

// canonical normalizes a version string to the "vMAJOR.MINOR.PATCH"
// form semver.Compare expects.
func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// ReleaseInfoFromGitHub converts a GitHub release to ReleaseInfo.
func ReleaseInfoFromGitHub(gh *github.RepositoryRelease) *ReleaseInfo {
	var publishedAt time.Time
	if gh.PublishedAt != nil {
		publishedAt = gh.PublishedAt.Time
	}
	return &ReleaseInfo{
		TagName:     gh.GetTagName(),
		Name:        gh.GetName(),
		PreRelease:  gh.GetPrerelease(),
		PublishedAt: publishedAt,
		HTMLURL:     gh.GetHTMLURL(),
		Body:        gh.GetBody(),
	}
}
