// Package output renders installations, mutation reports, and backups for
// the terminal.
//
// Tables use go-pretty; status words are coloured with lipgloss only when
// stdout is a terminal and NO_COLOR is unset.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/vsclean/internal/editor"
	"github.com/blackwell-systems/vsclean/internal/report"
	"github.com/blackwell-systems/vsclean/internal/snapshots"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// IsColorEnabled returns true if colour should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

func colorize(style lipgloss.Style, text string) string {
	if IsColorEnabled() {
		return style.Render(text)
	}
	return text
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	return t
}

// RenderInstallationTable lists resolved candidates in priority order.
// Candidates without files are shown only when showAll is set.
func RenderInstallationTable(candidates []editor.Candidate, active *editor.Candidate, showAll bool) string {
	t := newTable()
	t.AppendHeader(table.Row{"", "Variant", "Database", "Config", "Location"})

	rows := 0
	for _, c := range candidates {
		if !showAll && !c.HasFiles() {
			continue
		}
		marker := ""
		if active != nil && c.Variant == active.Variant {
			marker = "*"
		}
		t.AppendRow(table.Row{
			marker,
			c.Name(),
			formatPresence(c.DatabaseExists),
			formatPresence(c.ConfigExists),
			c.RootPath,
		})
		rows++
	}

	if rows == 0 {
		return "No editor installations found.\n"
	}
	return t.Render() + "\n"
}

func formatPresence(ok bool) string {
	if ok {
		return colorize(successStyle, "found")
	}
	return colorize(dimStyle, "missing")
}

// RenderReportTable shows one row per mutation report.
func RenderReportTable(reports []report.Report) string {
	if len(reports) == 0 {
		return "Nothing to do.\n"
	}

	t := newTable()
	t.AppendHeader(table.Row{"Operation", "Variant", "Target", "Result", "Status", "Backup"})
	for _, r := range reports {
		target := r.TargetPath
		if target == "" {
			target = "(no installation)"
		}
		backup := r.BackupPath
		if backup == "" {
			backup = "-"
		}
		variant := "-"
		if r.Variant != "" {
			variant = r.Variant.DisplayName()
		}
		t.AppendRow(table.Row{
			string(r.Operation),
			variant,
			target,
			formatResult(r),
			formatStatus(r),
			backup,
		})
	}
	return t.Render() + "\n"
}

// formatResult describes what the mutation changed.
func formatResult(r report.Report) string {
	if r.Status != report.StatusSuccess {
		return "-"
	}
	switch r.Operation {
	case report.OpClean:
		if r.DryRun {
			return fmt.Sprintf("%d rows would be deleted", r.RowsAffected)
		}
		return fmt.Sprintf("%d rows deleted", r.RowsAffected)
	case report.OpModifyIDs:
		return fmt.Sprintf("%d fields changed", r.FieldsChanged)
	}
	return "-"
}

func formatStatus(r report.Report) string {
	switch r.Status {
	case report.StatusSuccess:
		if r.DryRun {
			return colorize(successStyle, "dry-run")
		}
		return colorize(successStyle, string(r.Status))
	case report.StatusSkipped:
		return colorize(skippedStyle, string(r.Status))
	default:
		text := string(r.Status)
		if r.Reason != report.ReasonNone {
			text += " (" + string(r.Reason) + ")"
		}
		return colorize(failedStyle, text)
	}
}

// RenderFailures lists the error of every failed report, one per line.
func RenderFailures(reports []report.Report) string {
	var sb strings.Builder
	for _, r := range reports {
		if r.Status != report.StatusFailed {
			continue
		}
		sb.WriteString(colorize(failedStyle, "✗ "))
		sb.WriteString(r.Error().Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderChanges lists the identifier values replaced by modify-ids.
func RenderChanges(reports []report.Report) string {
	var sb strings.Builder
	for _, r := range reports {
		for _, c := range r.Changes {
			old := c.Old
			if old == "" {
				old = "(absent)"
			}
			sb.WriteString(fmt.Sprintf("  %s: %s → %s\n", c.Key, colorize(dimStyle, old), c.New))
		}
	}
	return sb.String()
}

// RenderSummary returns the closing summary line of a run.
func RenderSummary(s report.Summary) string {
	line := "Summary: " + s.String()
	switch {
	case s.Failed > 0:
		return colorize(failedStyle, line) + "\n"
	case s.Success > 0:
		return colorize(successStyle, line) + "\n"
	default:
		return colorize(skippedStyle, line) + "\n"
	}
}

// RenderBackupTable lists backups newest first.
func RenderBackupTable(entries []snapshots.Entry) string {
	if len(entries) == 0 {
		return "No backups found.\n"
	}

	t := newTable()
	t.AppendHeader(table.Row{"Created", "Size", "Path"})
	for _, e := range entries {
		t.AppendRow(table.Row{
			formatRelativeTime(e.CreatedAt),
			formatSize(e.Size),
			e.Path,
		})
	}
	return t.Render() + "\n"
}

// formatSize converts bytes to human-readable size (GB, MB, KB).
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.0f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.0f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// formatRelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}

	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 30*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	default:
		return t.Format("2006-01-02 15:04")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
