package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/specflow/specflow/internal/display"
	"github.com/specflow/specflow/internal/guard"
)

// SafetyError is a guard refusal: working at the shared root would
// collide with active epics.
type SafetyError struct {
	Reason string
}

func (e *SafetyError) Error() string {
	return "unsafe to work here: " + e.Reason
}

var checkSafetyLevel string

var checkSafetyCmd = &cobra.Command{
	Use:     "check-safety",
	Short:   "Check whether the current directory is safe to work in",
	GroupID: "info",
	Long: `Decides whether editing at the current location risks colliding
with epics that hold unmerged work. Inside an isolated workspace the
answer is always yes. At the shared root the configured protection
level applies: strict refuses while epics are active, prompt warns,
none allows.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}

		level := guard.Level(e.cfg.Guard.ProtectionLevel)
		if checkSafetyLevel != "" {
			level, err = guard.ParseLevel(checkSafetyLevel)
			if err != nil {
				return err
			}
		}

		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		loc, err := guard.Locate(cmd.Context(), cwd, e.store)
		if err != nil {
			return err
		}

		g := guard.New(e.store, level)
		decision, err := g.CheckSafety(cmd.Context(), loc)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch decision.Action {
		case guard.ActionAllow:
			fmt.Fprintln(out, display.SuccessMsg("Safe to work here: %s", decision.Reason))
		case guard.ActionWarn:
			fmt.Fprintln(out, display.WarningMsg("%s", decision.Reason))
			for _, u := range decision.ActiveEpics {
				fmt.Fprint(out, display.KeyValue(u.ID, display.StateLabel(u.State)))
			}
		case guard.ActionRefuse:
			for _, u := range decision.ActiveEpics {
				fmt.Fprint(out, display.KeyValue(u.ID, display.StateLabel(u.State)))
			}
			return &SafetyError{Reason: decision.Reason}
		}
		return nil
	},
}

func init() {
	checkSafetyCmd.Flags().StringVar(&checkSafetyLevel, "protection-level", "", "Override the configured protection level")
	rootCmd.AddCommand(checkSafetyCmd)
}
