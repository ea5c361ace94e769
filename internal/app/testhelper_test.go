package app

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/blackwell-systems/vsclean/internal/editor"
)

// testEnv is a fake linux home directory the commands resolve against.
type testEnv struct {
	env       editor.Environment
	configDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	root := t.TempDir()
	te := &testEnv{
		env:       editor.Environment{Home: filepath.Join(root, "home")},
		configDir: filepath.Join(root, "config"),
	}
	t.Setenv("XDG_CONFIG_HOME", te.configDir)
	t.Setenv("XDG_STATE_HOME", filepath.Join(root, "state"))
	t.Setenv("NO_COLOR", "1")
	t.Setenv("VSCLEAN_MARKER", "")
	os.Unsetenv("VSCLEAN_MARKER")

	oldOS, oldEnv := detectOS, environment
	detectOS = func() (editor.OS, error) { return editor.Linux, nil }
	environment = func() editor.Environment { return te.env }
	t.Cleanup(func() { detectOS, environment = oldOS, oldEnv })

	return te
}

// install creates the variant's state database and storage.json.
func (te *testEnv) install(t *testing.T, v editor.Variant, keys []string, storage string) editor.Candidate {
	t.Helper()
	c := te.candidate(t, v)
	createStateDB(t, c.DatabasePath, keys)
	require.NoError(t, os.WriteFile(c.ConfigPath, []byte(storage), 0644))
	return c
}

// createStateDB writes an ItemTable database at path with one row per key.
func createStateDB(t *testing.T, path string, keys []string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`CREATE TABLE ItemTable (key TEXT UNIQUE ON CONFLICT REPLACE, value BLOB)`)
	require.NoError(t, err)
	for _, k := range keys {
		_, err := db.Exec(`INSERT INTO ItemTable (key, value) VALUES (?, '1')`, k)
		require.NoError(t, err)
	}
}

func (te *testEnv) candidate(t *testing.T, v editor.Variant) editor.Candidate {
	t.Helper()
	for _, tmpl := range editor.Catalog(editor.Linux) {
		if tmpl.Variant == v {
			return tmpl.Expand(editor.Linux, te.env)
		}
	}
	require.FailNow(t, "variant not in catalog", "%s", v)
	return editor.Candidate{}
}

func (te *testEnv) writeConfig(t *testing.T, content string) {
	t.Helper()
	dir := filepath.Join(te.configDir, "vsclean")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))
}

// runCLI executes the root command with args and returns its stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(RootCmd)

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)
	RootCmd.SetIn(strings.NewReader(stdin))
	RootCmd.SetArgs(args)
	t.Cleanup(func() {
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		RootCmd.SetIn(nil)
		RootCmd.SetArgs(nil)
	})

	err := RootCmd.Execute()
	return out.String(), err
}

// resetFlags restores every flag to its default so package-level flag
// variables do not leak between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func rowKeys(t *testing.T, path string) []string {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query(`SELECT key FROM ItemTable ORDER BY key`)
	require.NoError(t, err)
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		require.NoError(t, rows.Scan(&k))
		keys = append(keys, k)
	}
	return keys
}

func backupFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.bak"))
	require.NoError(t, err)
	return matches
}
