package app

import (
	"fmt"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/vsclean/internal/config"
	"github.com/blackwell-systems/vsclean/internal/logging"
)

var (
	verbosity        int
	configPath       string
	allInstallations bool
	variantName      string

	// settings is loaded before every subcommand runs.
	settings *config.Config

	// RootCmd is the root command for vsclean
	RootCmd = &cobra.Command{
		Use:   "vsclean",
		Short: "Clean extension state and reset telemetry IDs of VS Code installations",
		Long: `vsclean finds VS Code installations (stable, Insiders, remote server,
VSCodium, Code-OSS) and performs two narrow edits on their state:

  clean        delete rows whose key contains a marker (default "augment")
               from globalStorage/state.vscdb
  modify-ids   replace telemetry.machineId and telemetry.devDeviceId in
               globalStorage/storage.json with fresh random values

Every file is copied to <file>.<timestamp>.bak and the copy verified before
it is modified. Backups are never deleted; restore them with 'vsclean undo'.

IMPORTANT: Close every editor window first. A running editor keeps the
database locked (reported as "locked") and may rewrite storage.json with its
in-memory identifiers when it exits.

Examples:
  # Show what was found
  vsclean list-installations

  # Preview how many rows would be removed
  vsclean clean --dry-run

  # Clean the database and reset identifiers
  vsclean all

  # Act on every installation instead of the first one found
  vsclean all --all-installations

  # Restore the newest backups
  vsclean undo latest`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v info, -vv debug, -vvv trace)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "settings file (default: $XDG_CONFIG_HOME/vsclean/config.toml)")
	RootCmd.PersistentFlags().BoolVar(&allInstallations, "all-installations", false, "act on every installation found, not only the first")
	RootCmd.PersistentFlags().StringVar(&variantName, "variant", "", "act on one variant: standard, insiders, server, server-insiders, codium, code-oss")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// setup initialises logging and loads the settings file.
func setup(cmd *cobra.Command, args []string) error {
	xdg.Reload()
	logging.SetupLogger(verbosity)

	path := configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	settings = cfg

	lg := logging.GetLogger("app")
	lg.Debug().
		Str("command", cmd.Name()).
		Str("config", path).
		Str("marker", cfg.Marker).
		Msg("settings loaded")

	if variantName != "" && allInstallations {
		return fmt.Errorf("--variant and --all-installations cannot be combined")
	}
	return nil
}
