package store

import (
	"fmt"
)

// matchClause selects rows whose column contains the marker as a literal,
// case-sensitive substring. instr is used instead of LIKE, which is
// case-insensitive for ASCII and treats % and _ as wildcards.
func matchClause(table, column string) string {
	return fmt.Sprintf("FROM %s WHERE instr(%s, ?) > 0", quoteIdent(table), quoteIdent(column))
}

// CountMatching returns how many rows DeleteMatching would remove.
func (s *Store) CountMatching(table, column, marker string) (int64, error) {
	var n int64
	query := "SELECT COUNT(*) " + matchClause(table, column)
	if err := s.db.QueryRow(query, marker).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", table, err)
	}
	return n, nil
}

// DeleteMatching deletes every row whose column contains marker inside a
// single transaction and returns the number of rows removed. On any error
// the transaction is rolled back.
func (s *Store) DeleteMatching(table, column, marker string) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	result, err := tx.Exec("DELETE "+matchClause(table, column), marker)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return 0, fmt.Errorf("failed to delete rows: %w (rollback error: %v)", err, rbErr)
		}
		return 0, fmt.Errorf("failed to delete rows: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return 0, fmt.Errorf("failed to get rows affected: %w (rollback error: %v)", err, rbErr)
		}
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit delete: %w", err)
	}

	return n, nil
}
