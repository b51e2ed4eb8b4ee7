package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specflow/specflow/internal/display"
	"github.com/specflow/specflow/internal/epic"
	"github.com/specflow/specflow/internal/graph"
)

var (
	addKind      string
	addTitle     string
	addDependsOn []string
	addTicket    string
)

var addCmd = &cobra.Command{
	Use:     "add <id>",
	Short:   "Register a new epic",
	GroupID: "lifecycle",
	Long: `Registers an epic in the Planned state. Dependencies must name
existing epics and must not introduce a cycle; the whole dependency
graph is validated before anything is written.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}

		kind := addKind
		if kind == "" {
			kind = e.cfg.Scheduler.DefaultKind
		}

		u := epic.New(args[0], kind, addDependsOn)
		u.Title = addTitle
		u.Ticket = addTicket

		return e.store.WithLock(func() error {
			all, err := e.store.ListEpics()
			if err != nil {
				return err
			}
			if _, err := graph.TopologicalOrder(append(all, u)); err != nil {
				return err
			}
			if err := e.store.CreateEpic(u); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), display.SuccessMsg("Added %s %s (branch %s)", u.Kind, u.ID, u.Branch))
			if len(u.DependsOn) > 0 {
				fmt.Fprint(cmd.OutOrStdout(), display.KeyValue("Depends on", fmt.Sprintf("%v", u.DependsOn)))
			}
			return nil
		})
	},
}

func init() {
	addCmd.Flags().StringVarP(&addKind, "kind", "k", "", "Unit kind (default from config)")
	addCmd.Flags().StringVarP(&addTitle, "title", "t", "", "Human-readable title")
	addCmd.Flags().StringSliceVarP(&addDependsOn, "depends-on", "d", nil, "Epic IDs this epic depends on")
	addCmd.Flags().StringVar(&addTicket, "ticket", "", "External tracker issue number to mirror")
	rootCmd.AddCommand(addCmd)
}
