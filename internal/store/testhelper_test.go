package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/vsclean/internal/snapshots"
)

// itemTableSchema matches the table VS Code creates in state.vscdb.
const itemTableSchema = `CREATE TABLE IF NOT EXISTS ItemTable (key TEXT UNIQUE ON CONFLICT REPLACE, value BLOB)`

type row struct {
	key   string
	value string
}

// createStateDB writes a state database with the given rows and returns
// its path.
func createStateDB(t *testing.T, rows ...row) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.vscdb")
	execAll(t, path, itemTableSchema)
	for _, r := range rows {
		db, err := sql.Open("sqlite", path)
		require.NoError(t, err)
		_, err = db.Exec(`INSERT INTO ItemTable (key, value) VALUES (?, ?)`, r.key, r.value)
		require.NoError(t, err)
		require.NoError(t, db.Close())
	}
	return path
}

func execAll(t *testing.T, path string, stmts ...string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
}

func keys(t *testing.T, path string) []string {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query(`SELECT key FROM ItemTable ORDER BY key`)
	require.NoError(t, err)
	defer rows.Close()

	var out []string
	for rows.Next() {
		var k string
		require.NoError(t, rows.Scan(&k))
		out = append(out, k)
	}
	require.NoError(t, rows.Err())
	return out
}

func backupOf(t *testing.T, path string) *snapshots.Record {
	t.Helper()
	rec, err := snapshots.New(zerolog.Nop()).Backup(path)
	require.NoError(t, err)
	return rec
}
