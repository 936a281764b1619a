package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist or is
	// not visible to the requesting owner.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("persistence: duplicate")
	// ErrForeignKeyViolation is returned when a referenced row is missing.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
	// ErrConstraintViolation is returned for CHECK and NOT NULL failures.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
)
