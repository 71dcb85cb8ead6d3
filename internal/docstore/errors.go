package docstore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotImplemented is returned by operations that are part of the
	// Repository contract but have no behavior yet.
	ErrNotImplemented = errors.New("jsondocs: not implemented")

	// ErrNotFound is returned when a document id does not exist.
	ErrNotFound = errors.New("jsondocs: document not found")

	// ErrInvalidDocument is returned for inputs rejected before any SQL runs.
	ErrInvalidDocument = errors.New("jsondocs: invalid document")
)

// StorageError wraps any failure reported by the database: constraint
// violations, I/O, syntax. It is not classified further.
type StorageError struct {
	// Op names the store operation, e.g. "create" or "delete".
	Op string

	// Err is the driver error.
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ConflictError reports a change token mismatch on update.
type ConflictError struct {
	ID       string
	Expected int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("change token conflict on %s: expected %d", e.ID, e.Expected)
}

func storageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

func notImplemented(op string) error {
	return fmt.Errorf("%s: %w", op, ErrNotImplemented)
}

// IsStorageError returns true if err is or wraps a *StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// IsConflict returns true if err is or wraps a *ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsNotImplemented returns true if err wraps ErrNotImplemented.
func IsNotImplemented(err error) bool {
	return errors.Is(err, ErrNotImplemented)
}

// IsNotFound returns true if err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
