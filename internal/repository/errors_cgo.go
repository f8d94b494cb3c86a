//go:build cgo

package store

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// cgoUniqueViolation classifies errors from github.com/mattn/go-sqlite3.
// ok is false when err is not a sqlite3.Error.
func cgoUniqueViolation(err error) (unique, ok bool) {
	var cgoErr sqlite3.Error
	if errors.As(err, &cgoErr) {
		return cgoErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			cgoErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey, true
	}
	return false, false
}
