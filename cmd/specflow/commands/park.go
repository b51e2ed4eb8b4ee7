package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specflow/specflow/internal/display"
)

var (
	parkReason    string
	parkBlockedBy string
)

var parkCmd = &cobra.Command{
	Use:     "park <id>",
	Short:   "Suspend an implementing epic, keeping its workspace",
	GroupID: "lifecycle",
	Long: `Releases the epic's WIP slot while preserving its workspace and
branch. When the ready queue is non-empty the freed slot is handed to
the next eligible epic automatically.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}

		res, err := e.sched.Park(cmd.Context(), args[0], parkReason, parkBlockedBy)
		if err != nil {
			return err
		}
		e.mirrorTicket(cmd, res.Parked)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, display.SuccessMsg("Parked %s", res.Parked.ID))
		if parkReason != "" {
			fmt.Fprint(out, display.KeyValue("Reason", parkReason))
		}
		if parkBlockedBy != "" {
			fmt.Fprint(out, display.KeyValue("Blocked by", parkBlockedBy))
		}
		if res.AutoAssigned != nil {
			fmt.Fprintln(out, display.SuccessMsg("Auto-assigned %s to %s",
				res.AutoAssigned.ID, res.AutoAssigned.AssignedWorker))
		}
		return nil
	},
}

func init() {
	parkCmd.Flags().StringVarP(&parkReason, "reason", "r", "", "Why the epic is being parked")
	parkCmd.Flags().StringVar(&parkBlockedBy, "blocked-by", "", "What the parked epic is waiting on")
	rootCmd.AddCommand(parkCmd)
}
