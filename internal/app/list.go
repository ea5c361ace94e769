package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/vsclean/internal/output"
)

var listFlagAll bool

var listCmd = &cobra.Command{
	Use:     "list-installations",
	Aliases: []string{"list"},
	Short:   "Show the editor installations found on this machine",
	Long: `Probe every known location for the current operating system, in
priority order, and show which have a state database and storage.json.

The installation marked with * is the one other commands act on unless
--variant or --all-installations is given. Nothing is modified.`,
	Example: `  vsclean list-installations
  vsclean list-installations --all   # include locations with no files`,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listFlagAll, "all", false, "also show probed locations without files")

	RootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	res, err := resolveInstallations()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, output.RenderInstallationTable(res.Candidates, res.Active, listFlagAll))
	if res.Active == nil {
		fmt.Fprintf(out, "\nNo installation has a state database or storage.json (%d locations checked).\n", len(res.Candidates))
		if !listFlagAll {
			fmt.Fprintln(out, "Run 'vsclean list-installations --all' to see where vsclean looked.")
		}
		return nil
	}
	fmt.Fprintf(out, "\nActive installation: %s (%s)\n", res.Active.Name(), res.Active.RootPath)
	return nil
}
