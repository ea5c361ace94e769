// Package report describes the outcome of a single mutation on one target
// file and summarises a run made of several of them.
package report

import (
	"fmt"

	"github.com/blackwell-systems/vsclean/internal/editor"
)

// Status is the terminal state of a mutation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped-not-found"
	StatusFailed  Status = "failed"
)

// Reason classifies why a mutation was skipped or failed.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonNotFound       Reason = "not-found"
	ReasonLocked         Reason = "locked"
	ReasonSchemaMismatch Reason = "schema-mismatch"
	ReasonMalformed      Reason = "malformed-file"
	ReasonIO             Reason = "io"
	ReasonBackup         Reason = "backup"
	ReasonMissingBackup  Reason = "missing-backup"
	ReasonInvalidInput   Reason = "invalid-input"
)

// Operation names the kind of mutation.
type Operation string

const (
	OpClean     Operation = "clean"
	OpModifyIDs Operation = "modify-ids"
)

// Change records one field overwritten by modify-ids. Old is the raw JSON
// of the previous value, empty if the key was absent.
type Change struct {
	Key string
	Old string
	New string
}

// Report is the result of one mutation on one file.
type Report struct {
	Operation     Operation
	Variant       editor.Variant
	TargetPath    string
	RowsAffected  int64 // clean
	FieldsChanged int   // modify-ids
	Changes       []Change
	BackupPath    string
	Status        Status
	Reason        Reason
	Err           error
	DryRun        bool
}

// MutationError is the error form of a non-successful report.
type MutationError struct {
	Operation Operation
	Path      string
	Reason    Reason
	Err       error
}

func (e *MutationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Operation, e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Operation, e.Path, e.Reason)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// Error returns nil for successful reports and a *MutationError otherwise.
func (r Report) Error() error {
	if r.Status == StatusSuccess {
		return nil
	}
	return &MutationError{Operation: r.Operation, Path: r.TargetPath, Reason: r.Reason, Err: r.Err}
}

// Skipped builds a skipped-not-found report.
func Skipped(op Operation, path string) Report {
	return Report{Operation: op, TargetPath: path, Status: StatusSkipped, Reason: ReasonNotFound}
}

// Failed builds a failed report.
func Failed(op Operation, path string, reason Reason, err error) Report {
	return Report{Operation: op, TargetPath: path, Status: StatusFailed, Reason: reason, Err: err}
}

// Summary counts reports by status.
type Summary struct {
	Success int
	Skipped int
	Failed  int
}

// Summarize tallies reports.
func Summarize(reports []Report) Summary {
	var s Summary
	for _, r := range reports {
		switch r.Status {
		case StatusSuccess:
			s.Success++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}

// ExitCode is 1 if anything failed; skipped targets alone do not fail a run.
func (s Summary) ExitCode() int {
	if s.Failed > 0 {
		return 1
	}
	return 0
}

func (s Summary) String() string {
	return fmt.Sprintf("%d succeeded, %d skipped, %d failed", s.Success, s.Skipped, s.Failed)
}
