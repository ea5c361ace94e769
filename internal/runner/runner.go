// Package runner drives a run: pick targets from a resolution, back each
// file up, then hand it to the cleaner or the rewriter. Failures stay
// scoped to the file they happened on.
package runner

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/vsclean/internal/editor"
	"github.com/blackwell-systems/vsclean/internal/identity"
	"github.com/blackwell-systems/vsclean/internal/report"
	"github.com/blackwell-systems/vsclean/internal/scanner"
	"github.com/blackwell-systems/vsclean/internal/snapshots"
	"github.com/blackwell-systems/vsclean/internal/store"
)

// EditorBackupSuffix is appended to the database path by the editor for
// its own copy of the state database.
const EditorBackupSuffix = ".backup"

// WorkspaceStorageDir holds one directory per opened workspace, each with
// its own state database.
const WorkspaceStorageDir = "workspaceStorage"

// Options control a clean or modify-ids run.
type Options struct {
	Marker string
	// DryRun counts matching rows and takes no backups.
	DryRun bool
	// IncludeEditorBackup also cleans state.vscdb.backup when present.
	IncludeEditorBackup bool
	// IncludeWorkspaces also cleans every workspaceStorage/*/state.vscdb.
	IncludeWorkspaces bool
}

// Runner ties the backup manager to the two mutations.
type Runner struct {
	Backups  *snapshots.Manager
	Cleaner  *store.Cleaner
	Rewriter *identity.Rewriter
	log      zerolog.Logger
}

// New creates a Runner.
func New(backups *snapshots.Manager, cleaner *store.Cleaner, rewriter *identity.Rewriter, log zerolog.Logger) *Runner {
	return &Runner{
		Backups:  backups,
		Cleaner:  cleaner,
		Rewriter: rewriter,
		log:      log,
	}
}

// Selection narrows a resolution to the installations a run acts on.
type Selection struct {
	// Variant forces one variant, with or without files.
	Variant editor.Variant
	// All acts on every installation that has files.
	All bool
}

// Targets returns the candidates to act on. An empty result means nothing
// was found and no mutation may be attempted.
func Targets(res *scanner.Resolution, sel Selection) []editor.Candidate {
	if res == nil {
		return nil
	}
	if sel.Variant != "" {
		if c, ok := res.Find(sel.Variant); ok {
			return []editor.Candidate{c}
		}
		return nil
	}
	if sel.All {
		return res.Found()
	}
	if res.Active == nil {
		return nil
	}
	return []editor.Candidate{*res.Active}
}

// Clean removes marker rows from every target's database.
func (r *Runner) Clean(targets []editor.Candidate, opts Options) []report.Report {
	if len(targets) == 0 {
		r.log.Warn().Msg("no editor installation found, nothing to clean")
		return []report.Report{report.Skipped(report.OpClean, "")}
	}

	var reports []report.Report
	for _, c := range targets {
		paths := []string{c.DatabasePath}
		if opts.IncludeEditorBackup {
			sibling := c.DatabasePath + EditorBackupSuffix
			if _, err := os.Lstat(sibling); !errors.Is(err, fs.ErrNotExist) {
				paths = append(paths, sibling)
			}
		}
		if opts.IncludeWorkspaces {
			paths = append(paths, r.workspaceDatabases(c)...)
		}
		for _, p := range paths {
			rep := r.cleanOne(p, opts)
			rep.Variant = c.Variant
			reports = append(reports, rep)
		}
	}
	return reports
}

// ModifyIDs regenerates the identifiers in every target's config file.
func (r *Runner) ModifyIDs(targets []editor.Candidate) []report.Report {
	if len(targets) == 0 {
		r.log.Warn().Msg("no editor installation found, nothing to modify")
		return []report.Report{report.Skipped(report.OpModifyIDs, "")}
	}

	reports := make([]report.Report, 0, len(targets))
	for _, c := range targets {
		rep := r.modifyOne(c.ConfigPath)
		rep.Variant = c.Variant
		reports = append(reports, rep)
	}
	return reports
}

// All runs clean followed by modify-ids. Both run even if the first fails.
func (r *Runner) All(targets []editor.Candidate, opts Options) []report.Report {
	reports := r.Clean(targets, opts)
	if opts.DryRun {
		return reports
	}
	return append(reports, r.ModifyIDs(targets)...)
}

// workspaceDatabases lists the per-workspace state databases under the
// candidate's User directory in lexical order.
func (r *Runner) workspaceDatabases(c editor.Candidate) []string {
	pattern := filepath.Join(c.RootPath, WorkspaceStorageDir, "*", editor.DatabaseFile)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		r.log.Warn().Err(err).Str("pattern", pattern).Msg("cannot list workspace databases")
		return nil
	}
	r.log.Debug().Int("count", len(matches)).Str("root", c.RootPath).Msg("workspace databases found")
	return matches
}

func (r *Runner) cleanOne(path string, opts Options) report.Report {
	if opts.DryRun {
		return r.Cleaner.Count(path, opts.Marker)
	}
	if ok, err := isFile(path); err != nil {
		return r.statFailed(report.OpClean, path, err)
	} else if !ok {
		return report.Skipped(report.OpClean, path)
	}
	if opts.Marker == "" {
		return report.Failed(report.OpClean, path, report.ReasonInvalidInput, errors.New("marker must not be empty"))
	}

	rec, err := r.Backups.Backup(path)
	if err != nil {
		return r.backupFailed(report.OpClean, path, err)
	}
	return r.Cleaner.Clean(path, opts.Marker, rec)
}

func (r *Runner) modifyOne(path string) report.Report {
	if ok, err := isFile(path); err != nil {
		return r.statFailed(report.OpModifyIDs, path, err)
	} else if !ok {
		return report.Skipped(report.OpModifyIDs, path)
	}

	rec, err := r.Backups.Backup(path)
	if err != nil {
		return r.backupFailed(report.OpModifyIDs, path, err)
	}
	return r.Rewriter.Rewrite(path, rec)
}

func (r *Runner) backupFailed(op report.Operation, path string, err error) report.Report {
	r.log.Error().Err(err).Str("path", path).Str("operation", string(op)).Msg("backup failed, leaving file untouched")
	if errors.Is(err, fs.ErrNotExist) {
		return report.Skipped(op, path)
	}
	return report.Failed(op, path, report.ReasonBackup, err)
}

func (r *Runner) statFailed(op report.Operation, path string, err error) report.Report {
	r.log.Error().Err(err).Str("path", path).Str("operation", string(op)).Msg("cannot stat file, leaving it untouched")
	return report.Failed(op, path, report.ReasonIO, err)
}

// isFile is the pre-backup existence check. A missing path or one that is
// not a regular file is skipped without taking a backup. Any other stat
// error is returned.
func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}
