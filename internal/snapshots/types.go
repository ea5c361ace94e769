package snapshots

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Record describes one backup that was written and verified.
type Record struct {
	SourcePath string
	BackupPath string
	CreatedAt  time.Time
	Size       int64
	SHA256     string
}

// ErrMissingBackup is returned by Covers when no usable backup exists.
var ErrMissingBackup = errors.New("refusing to modify file without a backup")

// Covers reports whether r is a backup of path whose file still exists.
// It is safe to call on a nil record.
func (r *Record) Covers(path string) error {
	if r == nil {
		return ErrMissingBackup
	}
	if !samePath(r.SourcePath, path) {
		return fmt.Errorf("%w: backup is of %s", ErrMissingBackup, r.SourcePath)
	}
	if _, err := os.Stat(r.BackupPath); err != nil {
		return fmt.Errorf("%w: %v", ErrMissingBackup, err)
	}
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// BackupError is returned when a backup cannot be created. The mutation
// for that file must not proceed.
type BackupError struct {
	Path string
	Err  error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("backup %s: %v", e.Path, e.Err)
}

func (e *BackupError) Unwrap() error {
	return e.Err
}

// Manager creates, lists, and restores sibling backups of editor files.
type Manager struct {
	now func() time.Time
	log zerolog.Logger
}

// New creates a new backup Manager.
func New(log zerolog.Logger) *Manager {
	return &Manager{
		now: time.Now,
		log: log,
	}
}
