/*
errors.go - Centralized error types for the finance engine

ERROR CATEGORIES:
  1. Validation errors - rejected before any write happens
  2. Not-found errors  - a referenced bucket or goal does not exist
  3. Storage errors    - persistence failed; the operation was rolled back

Undo of an unknown batch is deliberately NOT an error. The caller only
holds "the last batch id" and repeated clicks must be safe.

USAGE:
    if errors.Is(err, finance.ErrValidation) {
        // 400
    }
    var verr *finance.ValidationError
    if errors.As(err, &verr) {
        fmt.Println(verr.Field)
    }
*/
package finance

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the parent of every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrBucketNotFound is returned when an outflow or transfer names a
	// bucket that does not exist or is inactive.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrGoalNotFound is returned when a referenced goal doesn't exist.
	ErrGoalNotFound = errors.New("goal not found")

	// ErrStorage is the parent of every *StorageError.
	ErrStorage = errors.New("storage failure")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError describes invalid input. Nothing was written.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// StorageError wraps a persistence failure with the operation that failed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }

// storageErr wraps err unless it is already a domain error.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrStorage) || IsNotFound(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBucketNotFound) || errors.Is(err, ErrGoalNotFound)
}
