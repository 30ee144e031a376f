// Package persistence provides standardized error types for store operations.
package persistence

import (
	"errors"
	"fmt"
)

// ErrStoreUnavailable indicates the backing store could not be reached.
var ErrStoreUnavailable = errors.New("store unavailable")

// StoreError wraps store errors with the operation and collection key.
type StoreError struct {
	Op  string // Operation being performed (e.g. "LoadRules", "SaveExecutions")
	Key string // Collection key if applicable
	Err error  // Underlying error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s operation failed for %q: %v", e.Op, e.Key, e.Err)
	}

	return fmt.Sprintf("%s operation failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStoreError creates a new store error with context.
func NewStoreError(op, key string, err error) *StoreError {
	return &StoreError{
		Op:  op,
		Key: key,
		Err: err,
	}
}
