package app

import (
	"github.com/spf13/cobra"
)

var modifyFlagReadOnly bool

var modifyIDsCmd = &cobra.Command{
	Use:   "modify-ids",
	Short: "Replace the telemetry identifiers in storage.json",
	Long: `Replace telemetry.machineId with 64 random hex characters and
telemetry.devDeviceId with a random UUID (version 4).

Every other setting in storage.json is kept with its original value and
position. The file is backed up and the backup verified first, then
rewritten through a temporary file and an atomic rename.

With --read-only the rewritten file is made read-only so the editor cannot
quietly write its old identifiers back. Close the editor before running.`,
	Example: `  vsclean modify-ids
  vsclean modify-ids --read-only
  vsclean modify-ids --variant insiders`,
	RunE: runModifyIDs,
}

func init() {
	modifyIDsCmd.Flags().BoolVar(&modifyFlagReadOnly, "read-only", false, "make storage.json read-only after rewriting it")

	RootCmd.AddCommand(modifyIDsCmd)
}

func runModifyIDs(cmd *cobra.Command, args []string) error {
	targets, err := selectTargets()
	if err != nil {
		return err
	}

	readOnly := boolSetting(cmd, "read-only", modifyFlagReadOnly, settings.ReadOnly)
	reports := newRunner(readOnly).ModifyIDs(targets)
	return finish(cmd.OutOrStdout(), reports)
}
