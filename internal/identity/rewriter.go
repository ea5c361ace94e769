// Package identity regenerates the telemetry identifiers stored in the
// editor's storage.json.
package identity

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/vsclean/internal/fsutil"
	"github.com/blackwell-systems/vsclean/internal/report"
	"github.com/blackwell-systems/vsclean/internal/snapshots"
)

// Keys the editor uses for its identifiers.
const (
	DefaultMachineIDKey = "telemetry.machineId"
	DefaultDeviceIDKey  = "telemetry.devDeviceId"
)

// Fields names the two keys the rewriter owns.
type Fields struct {
	MachineID string
	DeviceID  string
}

// DefaultFields returns the editor's standard identifier keys.
func DefaultFields() Fields {
	return Fields{MachineID: DefaultMachineIDKey, DeviceID: DefaultDeviceIDKey}
}

// Rewriter replaces the owned identifier fields of a config file.
type Rewriter struct {
	Fields Fields
	// ReadOnly makes the rewritten file read-only so the editor cannot
	// quietly write new identifiers back.
	ReadOnly bool

	rand io.Reader
	log  zerolog.Logger
}

// NewRewriter creates a Rewriter drawing randomness from crypto/rand.
func NewRewriter(fields Fields, log zerolog.Logger) *Rewriter {
	if fields.MachineID == "" {
		fields.MachineID = DefaultMachineIDKey
	}
	if fields.DeviceID == "" {
		fields.DeviceID = DefaultDeviceIDKey
	}
	return &Rewriter{Fields: fields, rand: rand.Reader, log: log}
}

// Rewrite sets fresh identifiers in the JSON object at path. backup must be
// a record of a backup taken of path. Every member other than the two
// owned keys is written back unchanged and in its original position.
func (w *Rewriter) Rewrite(path string, backup *snapshots.Record) report.Report {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return report.Skipped(report.OpModifyIDs, path)
		}
		return w.failed(path, report.ReasonIO, err)
	}

	if w.Fields.MachineID == w.Fields.DeviceID {
		return w.failed(path, report.ReasonInvalidInput, fmt.Errorf("machine id and device id keys must differ (both %q)", w.Fields.MachineID))
	}

	if err := backup.Covers(path); err != nil {
		return w.failed(path, report.ReasonMissingBackup, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return w.failed(path, report.ReasonIO, err)
	}

	doc, err := parseDocument(data)
	if err != nil {
		return w.failed(path, report.ReasonMalformed, err)
	}

	machineID, err := NewMachineID(w.rand)
	if err != nil {
		return w.failed(path, report.ReasonIO, err)
	}
	deviceID, err := NewDeviceID(w.rand)
	if err != nil {
		return w.failed(path, report.ReasonIO, err)
	}

	changes := []report.Change{
		{Key: w.Fields.MachineID, New: machineID},
		{Key: w.Fields.DeviceID, New: deviceID},
	}
	for i := range changes {
		if old, ok := doc.get(changes[i].Key); ok {
			changes[i].Old = string(old)
		}
		if err := doc.setString(changes[i].Key, changes[i].New); err != nil {
			return w.failed(path, report.ReasonIO, err)
		}
	}

	out, err := doc.encode()
	if err != nil {
		return w.failed(path, report.ReasonIO, err)
	}

	perm := info.Mode().Perm()
	if w.ReadOnly {
		perm = 0444
	}
	if err := fsutil.WriteFileAtomic(path, out, perm); err != nil {
		return w.failed(path, report.ReasonIO, err)
	}

	for _, c := range changes {
		w.log.Debug().Str("key", c.Key).Bool("existed", c.Old != "").Msg("identifier replaced")
	}
	w.log.Info().Str("path", path).Bool("read_only", w.ReadOnly).Msg("identifiers rewritten")

	return report.Report{
		Operation:     report.OpModifyIDs,
		TargetPath:    path,
		FieldsChanged: len(changes),
		Changes:       changes,
		BackupPath:    backup.BackupPath,
		Status:        report.StatusSuccess,
	}
}

func (w *Rewriter) failed(path string, reason report.Reason, err error) report.Report {
	w.log.Error().Err(err).Str("path", path).Str("reason", string(reason)).Msg("identifier rewrite failed")
	return report.Failed(report.OpModifyIDs, path, reason, err)
}
