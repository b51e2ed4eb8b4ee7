// Package commands implements the specflow CLI.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/specflow/specflow/internal/config"
	"github.com/specflow/specflow/internal/display"
	"github.com/specflow/specflow/internal/log"
)

// Global flags.
var (
	verbose bool
	noColor bool
	jsonLog bool
)

var rootCmd = &cobra.Command{
	Use:   "specflow",
	Short: "Parallel epic scheduling with isolated workspaces",
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	Long: `Specflow schedules independent epics across a bounded pool of
parallel workers. Each epic gets an isolated workspace (a git worktree
on its own branch), dependencies gate assignment, and finished work is
merged back to trunk one epic at a time.

Quick Start:
  specflow init                        Initialize the repository
  specflow add auth-service            Register an epic
  specflow lock-contracts auth-service Freeze its interface
  specflow assign auth-service -w amy  Hand it to a worker
  specflow merge auth-service          Land it on trunk

For the pool:   specflow status
For the queue:  specflow list --ready`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load .env first so everything after sees its variables.
		if err := config.LoadDotEnvFromCwd(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .specflow/.env: %v\n", err)
		}

		log.Configure(log.Options{
			Verbose: verbose,
			JSON:    jsonLog,
		})

		display.InitColors(noColor)

		log.Debug("initialized", "verbose", verbose)
		return nil
	},
}

// Execute runs the root command with signal handling.
func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable color output")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "Emit logs as JSON")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "lifecycle",
		Title: "Lifecycle Commands:",
	}, &cobra.Group{
		ID:    "workspace",
		Title: "Workspace Commands:",
	}, &cobra.Group{
		ID:    "info",
		Title: "Information Commands:",
	})
}
