package memory

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks caller mistakes such as an unknown role.
	ErrValidation = errors.New("memory validation error")
	// ErrStoreUnavailable marks backing-store connectivity failures.
	ErrStoreUnavailable = errors.New("memory store unavailable")
)

// ValidationError describes a rejected write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StoreError wraps a failed backing-store operation.
type StoreError struct {
	Store string
	Op    string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Store, e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.Err}
}

func unavailable(store, op string, err error) error {
	return &StoreError{Store: store, Op: op, Err: err}
}
