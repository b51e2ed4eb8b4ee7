package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specflow/specflow/internal/display"
)

var rejectWorker string

var rejectCmd = &cobra.Command{
	Use:     "reject <id>",
	Short:   "Send an epic in review back for rework",
	GroupID: "lifecycle",
	Long: `Returns an epic from review to Implementing. Rework occupies a WIP
slot like any other implementation, so the capacity check applies.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}

		res, err := e.sched.Reject(cmd.Context(), args[0], rejectWorker)
		if err != nil {
			return err
		}
		e.mirrorTicket(cmd, res.Epic)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, display.SuccessMsg("Rejected %s back to %s", res.Epic.ID, res.Epic.AssignedWorker))
		fmt.Fprint(out, display.KeyValue("Workspace", res.Workspace.Path))
		return nil
	},
}

func init() {
	rejectCmd.Flags().StringVarP(&rejectWorker, "worker", "w", "", "Worker taking the rework")
	_ = rejectCmd.MarkFlagRequired("worker")
	rootCmd.AddCommand(rejectCmd)
}
