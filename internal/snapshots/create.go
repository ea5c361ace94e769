package snapshots

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"
)

// stampLayout sorts lexically and resolves to the nanosecond.
const stampLayout = "20060102-150405.000000000"

const backupSuffix = ".bak"

// maxCollisions bounds the counter fallback when a name is already taken.
const maxCollisions = 1000

// Backup copies path byte-for-byte to a new sibling file named
// <path>.<timestamp>.bak, then re-reads the copy and checks size and
// SHA-256 against the source. The source is never modified and an
// existing file is never overwritten.
func (m *Manager) Backup(path string) (*Record, error) {
	src, err := os.Open(path)
	if err != nil {
		return nil, &BackupError{Path: path, Err: err}
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return nil, &BackupError{Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &BackupError{Path: path, Err: errors.New("not a regular file")}
	}

	createdAt := m.now()
	dst, backupPath, err := createExclusive(path, createdAt, info.Mode().Perm())
	if err != nil {
		return nil, &BackupError{Path: path, Err: err}
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(dst, h), src)
	if err == nil {
		err = dst.Sync()
	}
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && n != info.Size() {
		err = fmt.Errorf("source changed during copy: copied %d of %d bytes", n, info.Size())
	}
	if err != nil {
		os.Remove(backupPath)
		return nil, &BackupError{Path: path, Err: fmt.Errorf("copy to %s: %w", backupPath, err)}
	}

	sum := hex.EncodeToString(h.Sum(nil))
	gotSize, gotSum, err := hashFile(backupPath)
	if err == nil && (gotSize != n || gotSum != sum) {
		err = fmt.Errorf("verification mismatch: wrote %d bytes (%s), read back %d bytes (%s)", n, sum, gotSize, gotSum)
	}
	if err != nil {
		os.Remove(backupPath)
		return nil, &BackupError{Path: path, Err: err}
	}

	m.log.Info().
		Str("source", path).
		Str("backup", backupPath).
		Int64("bytes", n).
		Msg("backup created")

	return &Record{
		SourcePath: path,
		BackupPath: backupPath,
		CreatedAt:  createdAt,
		Size:       n,
		SHA256:     sum,
	}, nil
}

// createExclusive opens a new backup file, appending -1, -2, ... to the
// timestamp when the name is already taken.
func createExclusive(source string, at time.Time, perm fs.FileMode) (*os.File, string, error) {
	stamp := at.Format(stampLayout)
	for i := 0; i < maxCollisions; i++ {
		name := fmt.Sprintf("%s.%s%s", source, stamp, backupSuffix)
		if i > 0 {
			name = fmt.Sprintf("%s.%s-%d%s", source, stamp, i, backupSuffix)
		}

		f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm|0200)
		if err == nil {
			return f, name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("no free backup name for %s after %d attempts", source, maxCollisions)
}

// hashFile returns the size and hex SHA-256 of the file at path.
func hashFile(path string) (int64, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, "", err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return 0, "", err
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}
