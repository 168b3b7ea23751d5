package environment

import (
	"errors"
	"fmt"
)

// Sentinel repository errors. Implementations wrap these with context via
// fmt.Errorf("...: %w", ...) so callers can test with errors.Is.
var (
	// ErrConflict signals another process holds the environment's lock.
	// The state machine surfaces it unchanged; whether to retry is an
	// application decision.
	ErrConflict = errors.New("environment is locked by another process")

	// ErrNotFound signals an operation that requires an existing record
	// found none. Load is the exception: loading a never-saved name
	// returns (nil, nil), not ErrNotFound.
	ErrNotFound = errors.New("environment not found")
)

// Repository persists environments in their type-erased form. The state
// machine is saved through it after every transition and loaded from it by
// every command handler.
//
// Contract: Save is atomic (a reader never observes a partially written
// record), Delete is idempotent, and cross-process exclusion is the
// implementation's concern (surfaced as ErrConflict).
type Repository interface {
	// Save persists the environment, replacing any previous record.
	Save(a Any) error

	// Load returns the stored environment, or (nil, nil) when no record
	// exists for the name.
	Load(name Name) (Any, error)

	// Exists reports whether a record exists for the name.
	Exists(name Name) (bool, error)

	// Delete removes the record. Deleting a non-existent record is not an
	// error.
	Delete(name Name) error
}

// InternalError wraps implementation-specific storage failures so callers
// can handle repository errors generically and still unwrap the cause.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("repository %s failed: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }
