// Package store removes marker rows from the editor's SQLite state database.
package store

import (
	"errors"
	"io/fs"
	"os"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/vsclean/internal/report"
	"github.com/blackwell-systems/vsclean/internal/snapshots"
)

// Cleaner deletes rows whose Column contains a marker substring.
type Cleaner struct {
	Table  string
	Column string
	log    zerolog.Logger
}

// NewCleaner creates a Cleaner for table/column. Empty names fall back to
// ItemTable/key.
func NewCleaner(table, column string, log zerolog.Logger) *Cleaner {
	if table == "" {
		table = DefaultTable
	}
	if column == "" {
		column = DefaultColumn
	}
	return &Cleaner{Table: table, Column: column, log: log}
}

// Clean deletes the matching rows from the database at path. backup must
// be a record of a backup taken of path; without one nothing is modified.
// Every outcome, including lock contention and schema mismatch, is
// returned as a report rather than an error.
func (c *Cleaner) Clean(path, marker string, backup *snapshots.Record) report.Report {
	if r, ok := c.precheck(path, marker); !ok {
		return r
	}

	if err := backup.Covers(path); err != nil {
		return report.Failed(report.OpClean, path, report.ReasonMissingBackup, err)
	}

	st, err := Open(path)
	if err != nil {
		return c.failed(path, err)
	}
	defer st.Close()

	if err := st.CheckSchema(c.Table, c.Column); err != nil {
		return c.failed(path, err)
	}

	n, err := st.DeleteMatching(c.Table, c.Column, marker)
	if err != nil {
		return c.failed(path, err)
	}

	c.log.Info().
		Str("path", path).
		Str("marker", marker).
		Int64("rows", n).
		Msg("database cleaned")

	return report.Report{
		Operation:    report.OpClean,
		TargetPath:   path,
		RowsAffected: n,
		BackupPath:   backup.BackupPath,
		Status:       report.StatusSuccess,
	}
}

// Count reports how many rows Clean would delete without modifying
// anything. No backup is required.
func (c *Cleaner) Count(path, marker string) report.Report {
	r := c.count(path, marker)
	r.DryRun = true
	return r
}

func (c *Cleaner) count(path, marker string) report.Report {
	if r, ok := c.precheck(path, marker); !ok {
		return r
	}

	st, err := Open(path)
	if err != nil {
		return c.failed(path, err)
	}
	defer st.Close()

	if err := st.CheckSchema(c.Table, c.Column); err != nil {
		return c.failed(path, err)
	}

	n, err := st.CountMatching(c.Table, c.Column, marker)
	if err != nil {
		return c.failed(path, err)
	}

	return report.Report{
		Operation:    report.OpClean,
		TargetPath:   path,
		RowsAffected: n,
		Status:       report.StatusSuccess,
	}
}

// precheck handles the cases that need no database access.
func (c *Cleaner) precheck(path, marker string) (report.Report, bool) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return report.Skipped(report.OpClean, path), false
		}
		return report.Failed(report.OpClean, path, report.ReasonIO, err), false
	}
	if marker == "" {
		return report.Failed(report.OpClean, path, report.ReasonInvalidInput, errors.New("marker must not be empty")), false
	}
	return report.Report{}, true
}

func (c *Cleaner) failed(path string, err error) report.Report {
	reason := classify(err)
	c.log.Error().Err(err).Str("path", path).Str("reason", string(reason)).Msg("database clean failed")
	return report.Failed(report.OpClean, path, reason, err)
}
