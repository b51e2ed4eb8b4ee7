package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specflow/specflow/internal/display"
)

var assignWorker string

var assignCmd = &cobra.Command{
	Use:     "assign <id>",
	Short:   "Assign an epic to a worker",
	GroupID: "lifecycle",
	Long: `Moves an epic into Implementing and provisions its isolated
workspace. Requires locked contracts, integrated dependencies, and a
free WIP slot.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}

		res, err := e.sched.Assign(cmd.Context(), args[0], assignWorker)
		if err != nil {
			return err
		}
		e.mirrorTicket(cmd, res.Epic)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, display.SuccessMsg("Assigned %s to %s", res.Epic.ID, res.Epic.AssignedWorker))
		fmt.Fprint(out, display.KeyValue("Workspace", res.Workspace.Path))
		fmt.Fprint(out, display.KeyValue("Branch", res.Workspace.Branch))
		return nil
	},
}

func init() {
	assignCmd.Flags().StringVarP(&assignWorker, "worker", "w", "", "Worker taking the epic")
	_ = assignCmd.MarkFlagRequired("worker")
	rootCmd.AddCommand(assignCmd)
}
