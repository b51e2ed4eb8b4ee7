package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specflow/specflow/internal/display"
	"github.com/specflow/specflow/internal/epic"
	"github.com/specflow/specflow/internal/store"
	"github.com/specflow/specflow/internal/workspace"
)

var (
	removeDeleteBranch bool
	removeForce        bool
)

var createCmd = &cobra.Command{
	Use:     "create <id>",
	Short:   "Provision an epic's isolated workspace",
	GroupID: "workspace",
	Long: `Provisions the worktree and branch for an epic without assigning
it. Normally assignment does this; create exists for preparing a
workspace ahead of time. Idempotent.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}

		u, err := e.store.GetEpic(args[0])
		if err != nil {
			return err
		}
		rec, err := e.prov.Create(cmd.Context(), u)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, display.SuccessMsg("Workspace ready for %s", u.ID))
		fmt.Fprint(out, display.KeyValue("Path", rec.Path))
		fmt.Fprint(out, display.KeyValue("Branch", rec.Branch))
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove <id>",
	Short:   "Tear down an epic's workspace",
	GroupID: "workspace",
	Long: `Removes the epic's worktree. The branch is deleted only when
--delete-branch is given and the branch is fully merged; unmerged work
is never silently discarded. Uncommitted changes require --force.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}

		res, err := e.prov.Remove(cmd.Context(), args[0], workspace.RemoveOptions{
			DeleteBranch: removeDeleteBranch,
			Force:        removeForce,
		})
		if err != nil {
			return err
		}

		// The workspace reference lives only while a workspace exists.
		if err := e.store.UpdateEpic(args[0], func(u *epic.Epic) error {
			u.WorkspacePath = ""
			return nil
		}); err != nil {
			var nf *store.NotFoundError
			if !errors.As(err, &nf) {
				return err
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, display.SuccessMsg("Removed workspace for %s", args[0]))
		if res.BranchDeleted {
			fmt.Fprint(out, display.KeyValue("Branch", "deleted"))
		}
		if res.Warning != "" {
			fmt.Fprintln(out, display.WarningMsg("%s", res.Warning))
		}
		return nil
	},
}

func init() {
	removeCmd.Flags().BoolVar(&removeDeleteBranch, "delete-branch", false, "Delete the isolation branch if merged")
	removeCmd.Flags().BoolVarP(&removeForce, "force", "f", false, "Discard uncommitted changes")
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(removeCmd)
}
