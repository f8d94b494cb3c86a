//go:build !cgo

package store

// cgoUniqueViolation is a no-op without cgo: the github.com/mattn/go-sqlite3
// stub driver never opens a connection, so it cannot produce sqlite3.Error.
func cgoUniqueViolation(error) (unique, ok bool) {
	return false, false
}
