package service

import (
	"errors"
	"fmt"
)

// ConflictError signals a lifecycle precondition violation: opening when a
// session is already open, closing or deleting when not eligible. Surfaced to
// the operator, never auto-retried.
type ConflictError struct {
	msg string
}

func Conflict(msg string) *ConflictError { return &ConflictError{msg: msg} }
func (e *ConflictError) Error() string { return e.msg }

// ValidationError signals malformed input (non-positive amount, missing
// required reference). The operation is aborted with no partial write.
type ValidationError struct {
	msg string
}

func Invalid(msg string) *ValidationError { return &ValidationError{msg: msg} }
func (e *ValidationError) Error() string { return e.msg }

// StoreError wraps a failed remote store call. Each write is a single atomic
// round-trip, so a StoreError means that specific write did not happen —
// earlier writes in the same batch may have succeeded.
type StoreError struct {
	Op  string
	Err error
}

func storeErr(op string, err error) *StoreError { return &StoreError{Op: op, Err: err} }
func (e *StoreError) Error() string { return fmt.Sprintf("store: %s: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

// IsConflict reports whether err is a lifecycle precondition violation.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
