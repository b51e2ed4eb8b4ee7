package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specflow/specflow/internal/display"
	"github.com/specflow/specflow/internal/merge"
)

var (
	mergeKeepWorkspace bool
	mergeKeepBranch    bool
)

var mergeCmd = &cobra.Command{
	Use:     "merge <id>",
	Short:   "Integrate an epic's branch into trunk",
	GroupID: "lifecycle",
	Long: `Merges the epic's isolation branch into trunk with a merge commit
recording the epic. The epic must be in review with a clean workspace;
on conflict the merge is aborted and trunk is untouched. After a
successful merge the workspace is torn down unless kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}

		res, err := e.merger.Integrate(cmd.Context(), args[0], merge.Options{
			KeepWorkspace: mergeKeepWorkspace,
			KeepBranch:    mergeKeepBranch,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if res.AlreadyIntegrated {
			fmt.Fprintln(out, display.SuccessMsg("%s is already integrated", res.Epic.ID))
			return nil
		}
		e.mirrorTicket(cmd, res.Epic)

		fmt.Fprintln(out, display.SuccessMsg("Integrated %s into trunk", res.Epic.ID))
		fmt.Fprint(out, display.KeyValue("Commit", res.Commit))
		if res.WorkspaceRemoved {
			fmt.Fprint(out, display.KeyValue("Workspace", "removed"))
		}
		if res.Warning != "" {
			fmt.Fprintln(out, display.WarningMsg("%s", res.Warning))
		}
		return nil
	},
}

func init() {
	mergeCmd.Flags().BoolVar(&mergeKeepWorkspace, "keep-workspace", false, "Keep the workspace after merging")
	mergeCmd.Flags().BoolVar(&mergeKeepBranch, "keep-branch", false, "Keep the isolation branch after merging")
	rootCmd.AddCommand(mergeCmd)
}
