package store

import (
	"errors"
	"strings"

	moderncsqlite "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY constraint failure
// from either supported driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	if unique, ok := cgoUniqueViolation(err); ok {
		return unique
	}

	var pureErr *moderncsqlite.Error
	if errors.As(err, &pureErr) {
		return pureErr.Code() == sqlitelib.SQLITE_CONSTRAINT_UNIQUE ||
			pureErr.Code() == sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
