package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specflow/specflow/internal/display"
)

var completeCmd = &cobra.Command{
	Use:     "complete <id>",
	Short:   "Move an implementing epic to review",
	GroupID: "lifecycle",
	Long: `Marks the epic's implementation as done, freeing its WIP slot.
The freed slot is refilled from the ready queue when possible. The
workspace stays in place until the epic is merged.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}

		res, err := e.sched.Complete(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		e.mirrorTicket(cmd, res.Epic)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, display.SuccessMsg("%s is now in review", res.Epic.ID))
		if res.AutoAssigned != nil {
			fmt.Fprintln(out, display.SuccessMsg("Auto-assigned %s to %s",
				res.AutoAssigned.ID, res.AutoAssigned.AssignedWorker))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completeCmd)
}
