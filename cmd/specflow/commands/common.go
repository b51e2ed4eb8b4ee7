package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/specflow/specflow/internal/config"
	"github.com/specflow/specflow/internal/epic"
	"github.com/specflow/specflow/internal/events"
	"github.com/specflow/specflow/internal/log"
	"github.com/specflow/specflow/internal/merge"
	"github.com/specflow/specflow/internal/scheduler"
	"github.com/specflow/specflow/internal/store"
	"github.com/specflow/specflow/internal/ticket"
	"github.com/specflow/specflow/internal/vcs"
	"github.com/specflow/specflow/internal/workspace"
)

// Exit codes. Precondition and validation failures (invalid transition,
// capacity exhausted, unmet or cyclic dependencies) exit 1; conflicts
// that need a human (merge conflict, dirty workspace, guard refusal)
// exit 2.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitConflict = 2
)

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		conflict *merge.ConflictError
		dirty    *merge.DirtyWorkspaceError
		safety   *SafetyError
	)
	switch {
	case errors.As(err, &conflict),
		errors.As(err, &dirty),
		errors.As(err, &safety):
		return ExitConflict
	}
	return ExitFailure
}

// env wires the repository-scoped services a command needs. It is built
// per invocation so each command sees the current config and store.
type env struct {
	root    string
	cfg     *config.Config
	store   *store.Store
	git     *vcs.Git
	bus     *events.Bus
	prov    workspace.Provisioner
	sched   *scheduler.Scheduler
	merger  *merge.Coordinator
	tickets ticket.Mirror
}

// newEnv resolves the repository root from the working directory and
// wires the services against it. Invocations from inside an isolated
// workspace resolve to the main checkout, so state always lives in one
// place.
func newEnv(cmd *cobra.Command) (*env, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("determine working directory: %w", err)
	}

	g, err := vcs.New(cwd)
	if err != nil {
		return nil, fmt.Errorf("not inside a git repository: %w", err)
	}

	root := g.Root()
	if g.IsWorktree() {
		root, err = g.MainWorktreePath()
		if err != nil {
			return nil, err
		}
	}

	rootGit, err := vcs.New(root)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(root)
	if err != nil {
		return nil, err
	}

	bus := events.NewBus()
	prov := workspace.NewGitProvisioner(rootGit, st, cfg.Git.Trunk, bus)

	return &env{
		root:    root,
		cfg:     cfg,
		store:   st,
		git:     rootGit,
		bus:     bus,
		prov:    prov,
		sched:   scheduler.New(st, prov, cfg.Scheduler.Capacity, bus),
		merger:  merge.New(rootGit, st, prov, cfg.Git.Trunk, bus),
		tickets: buildMirror(cfg),
	}, nil
}

// buildMirror assembles the tracker mirrors the config enables. A
// missing token disables that mirror with a warning rather than failing
// the command.
func buildMirror(cfg *config.Config) ticket.Mirror {
	var mirrors ticket.Multi

	if cfg.Tickets.GitHub.Enabled() {
		token, err := ticket.ResolveGitHubToken(cfg.Tickets.GitHub.Token)
		if err != nil {
			log.Warn("github ticket mirror disabled", log.Err(err))
		} else {
			mirrors = append(mirrors, ticket.NewGitHub(token, cfg.Tickets.GitHub.Owner, cfg.Tickets.GitHub.Repo))
		}
	}

	if cfg.Tickets.GitLab.Enabled() {
		token, err := ticket.ResolveGitLabToken(cfg.Tickets.GitLab.Token)
		if err != nil {
			log.Warn("gitlab ticket mirror disabled", log.Err(err))
		} else {
			gl, err := ticket.NewGitLab(token, cfg.Tickets.GitLab.Host, cfg.Tickets.GitLab.Project)
			if err != nil {
				log.Warn("gitlab ticket mirror disabled", log.Err(err))
			} else {
				mirrors = append(mirrors, gl)
			}
		}
	}

	if len(mirrors) == 0 {
		return ticket.Noop{}
	}
	return mirrors
}

// mirrorTicket pushes an epic's lifecycle state to its external
// tracker. Mirror failures are logged, never propagated.
func (e *env) mirrorTicket(cmd *cobra.Command, u *epic.Epic) {
	if u.Ticket == "" {
		return
	}
	if err := e.tickets.UpdateStatus(cmd.Context(), u); err != nil {
		log.Warn("ticket mirror update failed", log.EpicID(u.ID), log.Err(err))
	}
}
