package runner

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/blackwell-systems/vsclean/internal/editor"
	"github.com/blackwell-systems/vsclean/internal/identity"
	"github.com/blackwell-systems/vsclean/internal/report"
	"github.com/blackwell-systems/vsclean/internal/scanner"
	"github.com/blackwell-systems/vsclean/internal/snapshots"
	"github.com/blackwell-systems/vsclean/internal/store"
)

func newTestRunner() *Runner {
	log := zerolog.Nop()
	return New(
		snapshots.New(log),
		store.NewCleaner("", "", log),
		identity.NewRewriter(identity.DefaultFields(), log),
		log,
	)
}

// fakeHome lays out a linux home with the given variants installed and
// returns the environment to resolve against.
func fakeHome(t *testing.T, variants ...editor.Variant) editor.Environment {
	t.Helper()
	env := editor.Environment{Home: t.TempDir()}
	for _, v := range variants {
		c := candidateFor(t, env, v)
		require.NoError(t, os.MkdirAll(filepath.Dir(c.DatabasePath), 0755))
		writeStateDB(t, c.DatabasePath, "augment.chat", "augment.session", "workbench.layout")
		require.NoError(t, os.WriteFile(c.ConfigPath,
			[]byte(`{"telemetry.machineId":"old","telemetry.devDeviceId":"old","theme":"dark"}`), 0644))
	}
	return env
}

func candidateFor(t *testing.T, env editor.Environment, v editor.Variant) editor.Candidate {
	t.Helper()
	for _, tmpl := range editor.Catalog(editor.Linux) {
		if tmpl.Variant == v {
			return tmpl.Expand(editor.Linux, env)
		}
	}
	require.FailNow(t, "variant not in linux catalog", "%s", v)
	return editor.Candidate{}
}

func writeStateDB(t *testing.T, path string, keys ...string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`CREATE TABLE ItemTable (key TEXT UNIQUE ON CONFLICT REPLACE, value BLOB)`)
	require.NoError(t, err)
	for _, k := range keys {
		_, err = db.Exec(`INSERT INTO ItemTable (key, value) VALUES (?, '1')`, k)
		require.NoError(t, err)
	}
}

func countRows(t *testing.T, path string) int {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM ItemTable`).Scan(&n))
	return n
}

func resolve(t *testing.T, env editor.Environment) *scanner.Resolution {
	t.Helper()
	res, err := scanner.Resolve(editor.Linux, env)
	require.NoError(t, err)
	return res
}

func backupsIn(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".bak") {
			out = append(out, e.Name())
		}
	}
	return out
}

func TestTargets(t *testing.T) {
	env := fakeHome(t, editor.Insiders, editor.Codium)
	res := resolve(t, env)

	active := Targets(res, Selection{})
	require.Len(t, active, 1)
	assert.Equal(t, editor.Insiders, active[0].Variant)

	all := Targets(res, Selection{All: true})
	require.Len(t, all, 2)
	assert.Equal(t, editor.Insiders, all[0].Variant)
	assert.Equal(t, editor.Codium, all[1].Variant)

	forced := Targets(res, Selection{Variant: editor.Standard})
	require.Len(t, forced, 1)
	assert.False(t, forced[0].HasFiles())

	assert.Empty(t, Targets(resolve(t, fakeHome(t)), Selection{}))
	assert.Empty(t, Targets(nil, Selection{}))
}

func TestClean_NothingFound(t *testing.T) {
	env := fakeHome(t)
	res := resolve(t, env)

	reports := newTestRunner().Clean(Targets(res, Selection{}), Options{Marker: "augment"})

	require.Len(t, reports, 1)
	assert.Equal(t, report.StatusSkipped, reports[0].Status)
	assert.Equal(t, 0, report.Summarize(reports).ExitCode())

	// Nothing was created under the fake home.
	entries, err := os.ReadDir(env.Home)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestClean_BacksUpThenDeletes(t *testing.T) {
	env := fakeHome(t, editor.Standard)
	targets := Targets(resolve(t, env), Selection{})

	reports := newTestRunner().Clean(targets, Options{Marker: "augment"})

	require.Len(t, reports, 1)
	r := reports[0]
	require.Equal(t, report.StatusSuccess, r.Status, "err: %v", r.Err)
	assert.Equal(t, editor.Standard, r.Variant)
	assert.Equal(t, int64(2), r.RowsAffected)
	require.NotEmpty(t, r.BackupPath)

	assert.Equal(t, 1, countRows(t, targets[0].DatabasePath))
	assert.Equal(t, 3, countRows(t, r.BackupPath), "backup holds the pre-clean rows")
}

func TestClean_DryRunTouchesNothing(t *testing.T) {
	env := fakeHome(t, editor.Standard)
	targets := Targets(resolve(t, env), Selection{})

	reports := newTestRunner().Clean(targets, Options{Marker: "augment", DryRun: true})

	require.Len(t, reports, 1)
	assert.True(t, reports[0].DryRun)
	assert.Equal(t, int64(2), reports[0].RowsAffected)
	assert.Equal(t, 3, countRows(t, targets[0].DatabasePath))
	assert.Empty(t, backupsIn(t, filepath.Dir(targets[0].DatabasePath)))
}

func TestClean_IncludeEditorBackup(t *testing.T) {
	env := fakeHome(t, editor.Standard)
	targets := Targets(resolve(t, env), Selection{})
	sibling := targets[0].DatabasePath + EditorBackupSuffix
	writeStateDB(t, sibling, "augment.old", "keep")

	reports := newTestRunner().Clean(targets, Options{Marker: "augment", IncludeEditorBackup: true})

	require.Len(t, reports, 2)
	assert.Equal(t, sibling, reports[1].TargetPath)
	assert.Equal(t, int64(1), reports[1].RowsAffected)
	assert.Equal(t, 1, countRows(t, sibling))
}

func TestClean_IncludeWorkspaces(t *testing.T) {
	env := fakeHome(t, editor.Standard)
	targets := Targets(resolve(t, env), Selection{})
	var workspaces []string
	for _, id := range []string{"b2c4", "a1f0"} {
		p := filepath.Join(targets[0].RootPath, WorkspaceStorageDir, id, "state.vscdb")
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		writeStateDB(t, p, "augment.workspace", "memento/explorer")
		workspaces = append(workspaces, p)
	}
	// A workspace directory without a database is ignored.
	require.NoError(t, os.MkdirAll(filepath.Join(targets[0].RootPath, WorkspaceStorageDir, "empty"), 0755))

	reports := newTestRunner().Clean(targets, Options{Marker: "augment", IncludeWorkspaces: true})

	require.Len(t, reports, 3)
	assert.Equal(t, targets[0].DatabasePath, reports[0].TargetPath)
	assert.Equal(t, workspaces[1], reports[1].TargetPath, "workspaces in lexical order")
	assert.Equal(t, workspaces[0], reports[2].TargetPath)
	for _, r := range reports[1:] {
		require.Equal(t, report.StatusSuccess, r.Status, "err: %v", r.Err)
		assert.Equal(t, editor.Standard, r.Variant)
		assert.Equal(t, int64(1), r.RowsAffected)
		assert.NotEmpty(t, r.BackupPath)
		assert.Equal(t, 1, countRows(t, r.TargetPath))
		assert.Len(t, backupsIn(t, filepath.Dir(r.TargetPath)), 1)
	}

	// Off by default.
	reports = newTestRunner().Clean(targets, Options{Marker: "augment"})
	assert.Len(t, reports, 1)
}

func TestClean_MissingDatabaseSkippedWithoutBackup(t *testing.T) {
	env := fakeHome(t, editor.Standard)
	targets := Targets(resolve(t, env), Selection{})
	require.NoError(t, os.Remove(targets[0].DatabasePath))

	reports := newTestRunner().Clean(targets, Options{Marker: "augment"})

	require.Len(t, reports, 1)
	assert.Equal(t, report.StatusSkipped, reports[0].Status)
	assert.Empty(t, backupsIn(t, filepath.Dir(targets[0].DatabasePath)))
}

func TestCleanAndModify_StatErrorIsFailedNotSkipped(t *testing.T) {
	env := fakeHome(t)
	c := candidateFor(t, env, editor.Standard)
	// globalStorage is a regular file, so stat on anything below it fails
	// with ENOTDIR rather than not-exist.
	require.NoError(t, os.MkdirAll(c.RootPath, 0755))
	require.NoError(t, os.WriteFile(filepath.Dir(c.DatabasePath), []byte("x"), 0644))
	targets := Targets(resolve(t, env), Selection{Variant: editor.Standard})
	require.Len(t, targets, 1)

	reports := newTestRunner().All(targets, Options{Marker: "augment", IncludeEditorBackup: true})

	require.Len(t, reports, 3)
	for _, r := range reports {
		assert.Equal(t, report.StatusFailed, r.Status, "%s %s", r.Operation, r.TargetPath)
		assert.Equal(t, report.ReasonIO, r.Reason)
	}
	assert.Equal(t, targets[0].DatabasePath, reports[0].TargetPath)
	assert.Equal(t, targets[0].DatabasePath+EditorBackupSuffix, reports[1].TargetPath)
	assert.Equal(t, targets[0].ConfigPath, reports[2].TargetPath)
	assert.Equal(t, 1, report.Summarize(reports).ExitCode())
}

func TestModifyIDs_RewritesConfig(t *testing.T) {
	env := fakeHome(t, editor.Standard)
	targets := Targets(resolve(t, env), Selection{})

	reports := newTestRunner().ModifyIDs(targets)

	require.Len(t, reports, 1)
	r := reports[0]
	require.Equal(t, report.StatusSuccess, r.Status, "err: %v", r.Err)
	assert.Equal(t, 2, r.FieldsChanged)

	data, err := os.ReadFile(targets[0].ConfigPath)
	require.NoError(t, err)
	var doc map[string]string
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "dark", doc["theme"])
	assert.NotEqual(t, "old", doc[identity.DefaultMachineIDKey])
	assert.NotEqual(t, "old", doc[identity.DefaultDeviceIDKey])
}

func TestAll_RunsBothOperationsPerTarget(t *testing.T) {
	env := fakeHome(t, editor.Standard, editor.Codium)
	targets := Targets(resolve(t, env), Selection{All: true})

	reports := newTestRunner().All(targets, Options{Marker: "augment"})

	require.Len(t, reports, 4)
	s := report.Summarize(reports)
	assert.Equal(t, report.Summary{Success: 4}, s)

	// A second run takes fresh backups of both files next to the first ones.
	reports = newTestRunner().All(targets, Options{Marker: "augment"})
	assert.Equal(t, int64(0), reports[0].RowsAffected)
	assert.Len(t, backupsIn(t, filepath.Dir(targets[0].DatabasePath)), 4)
}

func TestAll_BackupFailureIsScopedToTarget(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	env := fakeHome(t, editor.Standard, editor.Codium)
	targets := Targets(resolve(t, env), Selection{All: true})
	lockedDir := filepath.Dir(targets[0].DatabasePath)
	require.NoError(t, os.Chmod(lockedDir, 0555))
	t.Cleanup(func() { os.Chmod(lockedDir, 0755) })

	reports := newTestRunner().Clean(targets, Options{Marker: "augment"})

	require.Len(t, reports, 2)
	assert.Equal(t, report.StatusFailed, reports[0].Status)
	assert.Equal(t, report.ReasonBackup, reports[0].Reason)
	assert.Equal(t, 3, countRows(t, targets[0].DatabasePath), "unbacked file must not be touched")

	assert.Equal(t, report.StatusSuccess, reports[1].Status)
	assert.Equal(t, 1, report.Summarize(reports).ExitCode())
}
