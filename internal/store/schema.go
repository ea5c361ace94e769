package store

import (
	"errors"
	"fmt"
	"strings"
)

// Location of the editor's key/value rows.
const (
	DefaultTable  = "ItemTable"
	DefaultColumn = "key"
)

// ErrSchemaMismatch reports that the expected table or column is missing.
var ErrSchemaMismatch = errors.New("schema mismatch")

// CheckSchema verifies that table exists and has column.
func (s *Store) CheckSchema(table, column string) error {
	rows, err := s.db.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return fmt.Errorf("failed to read schema of %s: %w", table, err)
	}
	defer rows.Close()

	var columns int
	found := false
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("failed to scan schema row: %w", err)
		}
		columns++
		if name == column {
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read schema of %s: %w", table, err)
	}

	if columns == 0 {
		return fmt.Errorf("%w: table %q not found", ErrSchemaMismatch, table)
	}
	if !found {
		return fmt.Errorf("%w: table %q has no column %q", ErrSchemaMismatch, table, column)
	}
	return nil
}

// quoteIdent quotes a SQL identifier. Table and column names cannot be
// bound as parameters.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
