package app

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/vsclean/internal/editor"
	"github.com/blackwell-systems/vsclean/internal/logging"
	"github.com/blackwell-systems/vsclean/internal/output"
	"github.com/blackwell-systems/vsclean/internal/snapshots"
)

var (
	undoFlagList   bool
	undoFlagYes    bool
	undoFlagTarget string
)

var undoCmd = &cobra.Command{
	Use:   "undo [latest]",
	Short: "Restore files from the backups vsclean created",
	Long: `List or restore the backups written next to the state database and
storage.json before each modification.

Restoring first backs up the current file, so an undo can itself be undone.
Close the editor before restoring.

Arguments:
  latest       Restore the newest backup of each selected file`,
	Example: `  vsclean undo --list                 # List backups
  vsclean undo latest                 # Restore database and storage.json
  vsclean undo latest --target db     # Restore only the database
  vsclean undo latest --yes           # Restore without confirmation`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUndo,
}

func init() {
	undoCmd.Flags().BoolVar(&undoFlagList, "list", false, "List available backups")
	undoCmd.Flags().BoolVar(&undoFlagYes, "yes", false, "Skip confirmation prompt")
	undoCmd.Flags().StringVar(&undoFlagTarget, "target", "all", "file to restore: db, config, or all")

	RootCmd.AddCommand(undoCmd)
}

// restorePlan is one file and the backup that would replace it.
type restorePlan struct {
	variant editor.Variant
	path    string
	backup  snapshots.Entry
}

func runUndo(cmd *cobra.Command, args []string) error {
	files, err := undoFiles(undoFlagTarget)
	if err != nil {
		return err
	}

	targets, err := selectTargets()
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No editor installation found.")
		return nil
	}

	mgr := snapshots.New(logging.GetLogger("snapshots"))
	out := cmd.OutOrStdout()

	if undoFlagList {
		return listBackups(out, mgr, targets, files)
	}

	if len(args) == 0 || strings.ToLower(args[0]) != "latest" {
		return fmt.Errorf("'latest' required\n\nUsage: vsclean undo latest [--target db|config|all]\n\nUse 'vsclean undo --list' to see available backups")
	}

	var plans []restorePlan
	for _, c := range targets {
		for _, path := range files(c) {
			entry, err := mgr.Latest(path)
			if err != nil {
				fmt.Fprintf(out, "No backups for %s\n", path)
				continue
			}
			plans = append(plans, restorePlan{variant: c.Variant, path: path, backup: entry})
		}
	}

	if len(plans) == 0 {
		return fmt.Errorf("no backups available\n\nBackups are created by 'vsclean clean', 'vsclean modify-ids' and 'vsclean all'")
	}

	fmt.Fprintln(out, "\nFiles to restore:")
	for _, p := range plans {
		fmt.Fprintf(out, "  - %s\n    from %s (%s)\n", p.path, p.backup.Path, p.backup.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintln(out)

	if !undoFlagYes && !confirmRestore(cmd.InOrStdin(), out, len(plans)) {
		fmt.Fprintln(out, "Restoration cancelled.")
		return nil
	}

	failed := 0
	for _, p := range plans {
		pre, err := mgr.Restore(p.backup.Path, p.path)
		if err != nil {
			failed++
			fmt.Fprintf(out, "✗ %s: %v\n", p.path, err)
			continue
		}
		fmt.Fprintf(out, "✓ Restored %s\n", p.path)
		if pre != nil {
			fmt.Fprintf(out, "  previous contents saved to %s\n", pre.BackupPath)
		}
	}

	if failed > 0 {
		return ErrOperationsFailed
	}
	return nil
}

// undoFiles maps --target to the candidate files it selects.
func undoFiles(target string) (func(editor.Candidate) []string, error) {
	switch target {
	case "db":
		return func(c editor.Candidate) []string { return []string{c.DatabasePath} }, nil
	case "config":
		return func(c editor.Candidate) []string { return []string{c.ConfigPath} }, nil
	case "all", "":
		return func(c editor.Candidate) []string { return []string{c.DatabasePath, c.ConfigPath} }, nil
	default:
		return nil, fmt.Errorf("invalid --target %q (must be db, config, or all)", target)
	}
}

// listBackups displays the backups of every selected file.
func listBackups(out io.Writer, mgr *snapshots.Manager, targets []editor.Candidate, files func(editor.Candidate) []string) error {
	for _, c := range targets {
		fmt.Fprintf(out, "\n%s (%s)\n", c.Name(), c.RootPath)
		for _, path := range files(c) {
			entries, err := mgr.List(path)
			if err != nil {
				return fmt.Errorf("failed to list backups: %w", err)
			}
			fmt.Fprintf(out, "\n%s\n", path)
			fmt.Fprint(out, output.RenderBackupTable(entries))
		}
	}
	fmt.Fprintf(out, "\nRestore with: vsclean undo latest\n")
	return nil
}

// confirmRestore prompts the user to confirm restoration.
func confirmRestore(in io.Reader, out io.Writer, count int) bool {
	fmt.Fprintf(out, "Restore %d files? [y/N]: ", count)

	reader := bufio.NewReader(in)
	response, err := reader.ReadString('\n')
	if err != nil && response == "" {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
