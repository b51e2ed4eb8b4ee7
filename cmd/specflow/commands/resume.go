package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specflow/specflow/internal/display"
)

var resumeWorker string

var resumeCmd = &cobra.Command{
	Use:     "resume <id>",
	Short:   "Return a parked epic to a worker",
	GroupID: "lifecycle",
	Long: `Moves a parked epic back into Implementing, reusing its preserved
workspace. The usual WIP capacity check applies.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}

		res, err := e.sched.Resume(cmd.Context(), args[0], resumeWorker)
		if err != nil {
			return err
		}
		e.mirrorTicket(cmd, res.Epic)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, display.SuccessMsg("Resumed %s with %s", res.Epic.ID, res.Epic.AssignedWorker))
		fmt.Fprint(out, display.KeyValue("Workspace", res.Workspace.Path))
		return nil
	},
}

func init() {
	resumeCmd.Flags().StringVarP(&resumeWorker, "worker", "w", "", "Worker taking the epic")
	_ = resumeCmd.MarkFlagRequired("worker")
	rootCmd.AddCommand(resumeCmd)
}
