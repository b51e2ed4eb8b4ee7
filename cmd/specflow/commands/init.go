package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/specflow/specflow/internal/config"
	"github.com/specflow/specflow/internal/display"
)

var initCmd = &cobra.Command{
	Use:     "init",
	Short:   "Initialize specflow in the current repository",
	GroupID: "lifecycle",
	Long: `Creates the .specflow state directory, writes a default
config.yaml, and adds the state and workspace directories to
.gitignore. Safe to re-run; existing configuration is kept.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}

		if err := e.store.EnsureInitialized(); err != nil {
			return err
		}
		if err := e.store.UpdateGitignore(); err != nil {
			return err
		}

		configPath := filepath.Join(e.root, config.Dir, config.FileName)
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			if err := e.cfg.Save(e.root); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), display.KeyValue("Config", configPath))
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), display.KeyValue("Config", configPath+" (kept)"))
		}

		envPath := filepath.Join(e.root, config.Dir, config.EnvFileName)
		if _, err := os.Stat(envPath); os.IsNotExist(err) {
			if err := os.WriteFile(envPath, []byte(envTemplate), 0o600); err != nil {
				return err
			}
		}

		fmt.Fprintln(cmd.OutOrStdout(), display.SuccessMsg("Initialized specflow in %s", e.root))
		return nil
	},
}

const envTemplate = `# Secrets for specflow. This file is git-ignored.
# SPECFLOW_GITHUB_TOKEN=
# SPECFLOW_GITLAB_TOKEN=
`

func init() {
	rootCmd.AddCommand(initCmd)
}
