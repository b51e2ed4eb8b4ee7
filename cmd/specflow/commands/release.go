package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specflow/specflow/internal/display"
	"github.com/specflow/specflow/internal/epic"
	"github.com/specflow/specflow/internal/events"
)

var releaseCmd = &cobra.Command{
	Use:     "release <id>",
	Short:   "Mark an integrated epic as shipped",
	GroupID: "lifecycle",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}

		var from epic.State
		if err := e.store.UpdateEpic(args[0], func(u *epic.Epic) error {
			from = u.State
			return u.TransitionTo(epic.StateReleased)
		}); err != nil {
			return err
		}
		e.bus.Publish(events.StateChangedEvent{EpicID: args[0], From: string(from), To: string(epic.StateReleased)})

		u, err := e.store.GetEpic(args[0])
		if err != nil {
			return err
		}
		e.mirrorTicket(cmd, u)

		fmt.Fprintln(cmd.OutOrStdout(), display.SuccessMsg("Released %s", u.ID))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(releaseCmd)
}
