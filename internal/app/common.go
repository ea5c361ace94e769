package app

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/vsclean/internal/editor"
	"github.com/blackwell-systems/vsclean/internal/identity"
	"github.com/blackwell-systems/vsclean/internal/logging"
	"github.com/blackwell-systems/vsclean/internal/output"
	"github.com/blackwell-systems/vsclean/internal/report"
	"github.com/blackwell-systems/vsclean/internal/runner"
	"github.com/blackwell-systems/vsclean/internal/scanner"
	"github.com/blackwell-systems/vsclean/internal/snapshots"
	"github.com/blackwell-systems/vsclean/internal/store"
)

// Platform hooks, replaced in tests.
var (
	detectOS    = scanner.CurrentOS
	environment = scanner.EnvironmentFromOS
)

// ErrOperationsFailed is returned when at least one report failed, so the
// process exits non-zero.
var ErrOperationsFailed = errors.New("one or more operations failed")

// resolveInstallations probes the machine for editor installations.
func resolveInstallations() (*scanner.Resolution, error) {
	goos, err := detectOS()
	if err != nil {
		return nil, err
	}
	return scanner.New(logging.GetLogger("scanner")).Resolve(goos, environment())
}

// selectTargets resolves and applies the --variant/--all-installations
// selection.
func selectTargets() ([]editor.Candidate, error) {
	res, err := resolveInstallations()
	if err != nil {
		return nil, err
	}

	sel := runner.Selection{All: allInstallations}
	if variantName != "" {
		v, err := editor.ParseVariant(variantName)
		if err != nil {
			return nil, err
		}
		sel.Variant = v
	}
	return runner.Targets(res, sel), nil
}

// newRunner wires the backup manager, cleaner, and rewriter from settings.
func newRunner(readOnly bool) *runner.Runner {
	rw := identity.NewRewriter(settings.Fields(), logging.GetLogger("identity"))
	rw.ReadOnly = readOnly

	return runner.New(
		snapshots.New(logging.GetLogger("snapshots")),
		store.NewCleaner(settings.Table, settings.Column, logging.GetLogger("store")),
		rw,
		logging.GetLogger("runner"),
	)
}

// finish prints every report and the summary, and turns failures into a
// non-nil error.
func finish(w io.Writer, reports []report.Report) error {
	fmt.Fprint(w, output.RenderReportTable(reports))
	if changes := output.RenderChanges(reports); changes != "" {
		fmt.Fprintln(w, "\nNew identifiers:")
		fmt.Fprint(w, changes)
	}
	if failures := output.RenderFailures(reports); failures != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, failures)
	}

	summary := report.Summarize(reports)
	fmt.Fprintln(w)
	fmt.Fprint(w, output.RenderSummary(summary))

	if summary.ExitCode() != 0 {
		return ErrOperationsFailed
	}
	return nil
}

// boolSetting returns the flag value if the user set it, else the setting.
func boolSetting(cmd *cobra.Command, flag string, value, fallback bool) bool {
	if cmd.Flags().Changed(flag) {
		return value
	}
	return fallback
}
