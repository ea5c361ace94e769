package store

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/blackwell-systems/vsclean/internal/report"
)

// classify maps a database error onto a report reason.
func classify(err error) report.Reason {
	if errors.Is(err, ErrSchemaMismatch) {
		return report.ReasonSchemaMismatch
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return report.ReasonLocked
		case sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT:
			return report.ReasonMalformed
		}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "no such table"), strings.Contains(msg, "no such column"):
		return report.ReasonSchemaMismatch
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "database table is locked"):
		return report.ReasonLocked
	case strings.Contains(msg, "file is not a database"):
		return report.ReasonMalformed
	}

	return report.ReasonIO
}
