package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/specflow/specflow/internal/display"
	"github.com/specflow/specflow/internal/update"
)

// Set via ldflags at build time.
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

var versionCheck bool

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Show version information",
	GroupID: "info",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprint(out, display.KeyValue("Version", Version))
		fmt.Fprint(out, display.KeyValue("Commit", Commit))
		fmt.Fprint(out, display.KeyValue("Built", BuildTime))

		if !versionCheck {
			return nil
		}

		checker := update.NewChecker(os.Getenv("GITHUB_TOKEN"), "", "")
		status, err := checker.Check(cmd.Context(), update.CheckOptions{CurrentVersion: Version})
		switch {
		case errors.Is(err, update.ErrDevBuild):
			fmt.Fprintln(out, display.Muted("Development build; skipping update check."))
			return nil
		case errors.Is(err, update.ErrNoUpdateAvailable):
			fmt.Fprintln(out, display.SuccessMsg("Up to date."))
			return nil
		case err != nil:
			return fmt.Errorf("check for updates: %w", err)
		}

		fmt.Fprintln(out, display.WarningMsg("Update available: %s", status.LatestVersion))
		if status.ReleaseURL != "" {
			fmt.Fprint(out, display.KeyValue("Release", status.ReleaseURL))
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "Check for a newer release")
	rootCmd.AddCommand(versionCmd)
}
