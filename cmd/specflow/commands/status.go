package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/specflow/specflow/internal/display"
	"github.com/specflow/specflow/internal/epic"
	"github.com/specflow/specflow/internal/scheduler"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show pool occupancy, in-flight work, and the ready queue",
	GroupID: "info",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}

		occupancy, err := e.sched.Occupancy(cmd.Context())
		if err != nil {
			return err
		}
		implementing, err := e.sched.List(cmd.Context(), scheduler.ListFilter{State: epic.StateImplementing})
		if err != nil {
			return err
		}
		review, err := e.sched.List(cmd.Context(), scheduler.ListFilter{State: epic.StateReview})
		if err != nil {
			return err
		}
		parked, err := e.sched.List(cmd.Context(), scheduler.ListFilter{State: epic.StateParked})
		if err != nil {
			return err
		}
		ready, err := e.sched.ReadyQueue(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprint(out, display.Section("Pool"))
		fmt.Fprint(out, display.KeyValue("Capacity", fmt.Sprintf("%d of %d slots occupied", occupancy, e.sched.Capacity())))
		fmt.Fprint(out, display.KeyValue("Trunk", e.cfg.Git.Trunk))

		if len(implementing) > 0 {
			fmt.Fprint(out, display.Section("Implementing"))
			for _, u := range implementing {
				fmt.Fprint(out, display.KeyValue(u.ID, fmt.Sprintf("%s at %s", u.AssignedWorker, u.WorkspacePath)))
			}
		}
		if len(review) > 0 {
			fmt.Fprint(out, display.Section("In Review"))
			for _, u := range review {
				fmt.Fprint(out, display.KeyValue(u.ID, display.ColorState(u.State)))
			}
		}
		if len(parked) > 0 {
			fmt.Fprint(out, display.Section("Parked"))
			for _, u := range parked {
				fmt.Fprint(out, display.KeyValue(u.ID, u.ParkedReason))
			}
		}

		fmt.Fprint(out, display.Section("Ready Queue"))
		if len(ready) == 0 {
			fmt.Fprintln(out, display.Muted("empty"))
		} else {
			ids := make([]string, len(ready))
			for i, u := range ready {
				ids[i] = u.ID
			}
			fmt.Fprintln(out, strings.Join(ids, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
