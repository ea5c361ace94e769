package snapshots

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/blackwell-systems/vsclean/internal/fsutil"
)

// Entry is a backup file found on disk for a given source.
type Entry struct {
	Path      string
	CreatedAt time.Time
	Size      int64
	seq       int
}

// List returns the backups of source that follow this package's naming
// scheme, newest first. A missing directory yields an empty list.
func (m *Manager) List(source string) ([]Entry, error) {
	dir := filepath.Dir(source)
	prefix := filepath.Base(source) + "."

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, backupSuffix) {
			continue
		}

		createdAt, seq, ok := parseStamp(strings.TrimSuffix(strings.TrimPrefix(name, prefix), backupSuffix))
		if !ok {
			continue
		}

		info, err := de.Info()
		if err != nil {
			continue
		}

		entries = append(entries, Entry{
			Path:      filepath.Join(dir, name),
			CreatedAt: createdAt,
			Size:      info.Size(),
			seq:       seq,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].seq > entries[j].seq
	})

	return entries, nil
}

// Latest returns the newest backup of source.
func (m *Manager) Latest(source string) (Entry, error) {
	entries, err := m.List(source)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, fmt.Errorf("no backups found for %s", source)
	}
	return entries[0], nil
}

// Restore replaces target with the contents of backupPath. If target
// currently exists it is backed up first, and that record is returned so
// the restore itself can be undone.
func (m *Manager) Restore(backupPath, target string) (*Record, error) {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}

	var pre *Record
	if _, err := os.Stat(target); err == nil {
		pre, err = m.Backup(target)
		if err != nil {
			return nil, err
		}
	}

	perm := fsutil.FileMode(target, fsutil.FileMode(backupPath, 0644))
	if err := fsutil.WriteFileAtomic(target, data, perm); err != nil {
		return pre, fmt.Errorf("failed to restore %s: %w", target, err)
	}

	m.log.Info().
		Str("backup", backupPath).
		Str("target", target).
		Msg("backup restored")

	return pre, nil
}

// parseStamp splits "<stamp>" or "<stamp>-<n>" into time and sequence.
func parseStamp(s string) (time.Time, int, bool) {
	if len(s) < len(stampLayout) {
		return time.Time{}, 0, false
	}

	t, err := time.ParseInLocation(stampLayout, s[:len(stampLayout)], time.Local)
	if err != nil {
		return time.Time{}, 0, false
	}

	rest := s[len(stampLayout):]
	if rest == "" {
		return t, 0, true
	}
	if !strings.HasPrefix(rest, "-") {
		return time.Time{}, 0, false
	}
	seq, err := strconv.Atoi(rest[1:])
	if err != nil || seq < 1 {
		return time.Time{}, 0, false
	}
	return t, seq, true
}
