package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specflow/specflow/internal/display"
	"github.com/specflow/specflow/internal/epic"
)

var lockContractsCmd = &cobra.Command{
	Use:     "lock-contracts <id>",
	Short:   "Freeze an epic's interface, making it assignable",
	GroupID: "lifecycle",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}

		if err := e.store.UpdateEpic(args[0], func(u *epic.Epic) error {
			return u.TransitionTo(epic.StateContractsLocked)
		}); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), display.SuccessMsg("Contracts locked for %s", args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lockContractsCmd)
}
