package app

import (
	"github.com/spf13/cobra"
)

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Run clean followed by modify-ids",
	Long: `Run clean and then modify-ids on the same installations.

Both operations always run; a failure in one does not stop the other. Each
file gets its own verified backup. The exit status is non-zero if either
operation failed on any file.`,
	Example: `  vsclean all
  vsclean all --all-installations
  vsclean all --marker copilot --read-only`,
	RunE: runAll,
}

func init() {
	allCmd.Flags().StringVar(&cleanFlagMarker, "marker", "", "substring to match in the key column (default from settings, \"augment\")")
	allCmd.Flags().BoolVar(&cleanFlagIncludeEditorBackup, "include-editor-backup", false, "also clean the editor's own state.vscdb.backup")
	allCmd.Flags().BoolVar(&cleanFlagIncludeWorkspaces, "include-workspaces", false, "also clean every workspaceStorage/*/state.vscdb")
	allCmd.Flags().BoolVar(&modifyFlagReadOnly, "read-only", false, "make storage.json read-only after rewriting it")

	RootCmd.AddCommand(allCmd)
}

func runAll(cmd *cobra.Command, args []string) error {
	targets, err := selectTargets()
	if err != nil {
		return err
	}

	opts := cleanOptions(cmd)
	opts.DryRun = false
	readOnly := boolSetting(cmd, "read-only", modifyFlagReadOnly, settings.ReadOnly)

	reports := newRunner(readOnly).All(targets, opts)
	return finish(cmd.OutOrStdout(), reports)
}
