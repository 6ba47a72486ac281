package storage

import (
	"errors"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when a row does not exist or is not owned by
	// the caller.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateName is returned when a label name collides with one of
	// the owner's labels or a default.
	ErrDuplicateName = errors.New("name already exists")
	// ErrInvalidReference is returned when an expense points at a label the
	// owner cannot see.
	ErrInvalidReference = errors.New("invalid category or payment method reference")
	ErrDuplicateUser    = errors.New("username already taken")
)

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
