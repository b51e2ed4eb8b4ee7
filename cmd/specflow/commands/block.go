package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specflow/specflow/internal/display"
	"github.com/specflow/specflow/internal/epic"
)

var blockReason string

var blockCmd = &cobra.Command{
	Use:     "block <id>",
	Short:   "Mark an epic as blocked on something external",
	GroupID: "lifecycle",
	Long: `Records an external blocker. The epic remembers where it was and
returns there on unblock. Blocking an implementing epic releases its
WIP slot.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}

		res, err := e.sched.Block(cmd.Context(), args[0], blockReason)
		if err != nil {
			return err
		}
		u := res.Blocked

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, display.WarningMsg("Blocked %s (was %s)", u.ID, display.StateLabel(u.BlockedFrom)))
		if blockReason != "" {
			fmt.Fprint(out, display.KeyValue("Reason", blockReason))
		}
		if res.AutoAssigned != nil {
			fmt.Fprintln(out, display.SuccessMsg("Auto-assigned %s to %s",
				res.AutoAssigned.ID, res.AutoAssigned.AssignedWorker))
		}
		return nil
	},
}

var unblockCmd = &cobra.Command{
	Use:     "unblock <id>",
	Short:   "Return a blocked epic to its prior state",
	GroupID: "lifecycle",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}

		var returned epic.State
		if err := e.store.UpdateEpic(args[0], func(u *epic.Epic) error {
			returned = u.BlockedFrom
			return u.TransitionTo(u.BlockedFrom)
		}); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), display.SuccessMsg("Unblocked %s, back to %s",
			args[0], display.StateLabel(returned)))
		return nil
	},
}

func init() {
	blockCmd.Flags().StringVarP(&blockReason, "reason", "r", "", "What the epic is blocked on")
	rootCmd.AddCommand(blockCmd)
	rootCmd.AddCommand(unblockCmd)
}
