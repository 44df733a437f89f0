package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an insert violates a unique constraint,
	// e.g. a second rating for the same ride or a reused payment reference.
	ErrDuplicate = errors.New("duplicate entity")

	// ErrTransient is returned on store-level contention or timeout. The
	// caller may retry the whole operation.
	ErrTransient = errors.New("transient storage error")
)
