package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/specflow/specflow/internal/display"
	"github.com/specflow/specflow/internal/epic"
	"github.com/specflow/specflow/internal/scheduler"
)

var (
	listState string
	listReady bool
	listJSON  bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List epics",
	GroupID: "info",
	Long: `Lists epics in creation order. --ready shows only the assignable
queue in dependency order; --state filters by lifecycle state.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}

		var units []*epic.Epic
		if listReady {
			units, err = e.sched.ReadyQueue(cmd.Context())
		} else {
			var filter scheduler.ListFilter
			if listState != "" {
				s := epic.State(listState)
				if !s.Valid() {
					return fmt.Errorf("unknown state %q", listState)
				}
				filter.State = s
			}
			units, err = e.sched.List(cmd.Context(), filter)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if listJSON {
			return writeEpicsJSON(out, units)
		}

		if len(units) == 0 {
			fmt.Fprintln(out, display.Muted("No epics found."))
			return nil
		}

		rows := make([][]string, 0, len(units))
		for _, u := range units {
			rows = append(rows, []string{
				u.ID,
				display.ColorState(u.State),
				u.AssignedWorker,
				strings.Join(u.DependsOn, ","),
				u.WorkspacePath,
			})
		}
		fmt.Fprint(out, display.Table(
			[]string{"ID", "STATE", "WORKER", "DEPS", "WORKSPACE"}, rows))
		return nil
	},
}

// listItem is the JSON shape for one epic.
type listItem struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"`
	Title     string   `json:"title,omitempty"`
	State     string   `json:"state"`
	DependsOn []string `json:"depends_on,omitempty"`
	Worker    string   `json:"worker,omitempty"`
	Workspace string   `json:"workspace,omitempty"`
	Branch    string   `json:"branch"`
}

func writeEpicsJSON(out io.Writer, units []*epic.Epic) error {
	items := make([]listItem, 0, len(units))
	for _, u := range units {
		items = append(items, listItem{
			ID:        u.ID,
			Kind:      u.Kind,
			Title:     u.Title,
			State:     string(u.State),
			DependsOn: u.DependsOn,
			Worker:    u.AssignedWorker,
			Workspace: u.WorkspacePath,
			Branch:    u.Branch,
		})
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

func init() {
	listCmd.Flags().StringVarP(&listState, "state", "s", "", "Filter by lifecycle state")
	listCmd.Flags().BoolVar(&listReady, "ready", false, "Show only the assignable queue")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
	listCmd.MarkFlagsMutuallyExclusive("state", "ready")
	rootCmd.AddCommand(listCmd)
}
