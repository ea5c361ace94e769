package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/vsclean/internal/runner"
)

var (
	cleanFlagMarker              string
	cleanFlagDryRun              bool
	cleanFlagIncludeEditorBackup bool
	cleanFlagIncludeWorkspaces   bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete marker rows from the editor's state database",
	Long: `Delete every row of ItemTable whose key contains the marker substring.

The match is a literal, case-sensitive substring test. The database is
backed up and the backup verified before anything is deleted; the delete
runs in a single transaction.

The editor must be closed. A database held open by a running editor is
reported as "locked" and left untouched.`,
	Example: `  vsclean clean                       # Remove rows containing "augment"
  vsclean clean --marker copilot      # Use a different marker
  vsclean clean --dry-run             # Count matching rows only
  vsclean clean --include-editor-backup
  vsclean clean --include-workspaces  # Also clean workspaceStorage/*/state.vscdb`,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().StringVar(&cleanFlagMarker, "marker", "", "substring to match in the key column (default from settings, \"augment\")")
	cleanCmd.Flags().BoolVar(&cleanFlagDryRun, "dry-run", false, "count matching rows without backing up or deleting")
	cleanCmd.Flags().BoolVar(&cleanFlagIncludeEditorBackup, "include-editor-backup", false, "also clean the editor's own state.vscdb.backup")
	cleanCmd.Flags().BoolVar(&cleanFlagIncludeWorkspaces, "include-workspaces", false, "also clean every workspaceStorage/*/state.vscdb")

	RootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	targets, err := selectTargets()
	if err != nil {
		return err
	}

	opts := cleanOptions(cmd)
	if opts.DryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "Dry run: counting rows containing %q, nothing will be modified.\n\n", opts.Marker)
	}

	reports := newRunner(false).Clean(targets, opts)
	return finish(cmd.OutOrStdout(), reports)
}

// cleanOptions merges the clean flags over the loaded settings.
func cleanOptions(cmd *cobra.Command) runner.Options {
	marker := settings.Marker
	if cmd.Flags().Changed("marker") {
		marker = cleanFlagMarker
	}
	return runner.Options{
		Marker:              marker,
		DryRun:              cleanFlagDryRun,
		IncludeEditorBackup: boolSetting(cmd, "include-editor-backup", cleanFlagIncludeEditorBackup, settings.IncludeEditorBackup),
		IncludeWorkspaces:   boolSetting(cmd, "include-workspaces", cleanFlagIncludeWorkspaces, settings.IncludeWorkspaces),
	}
}
