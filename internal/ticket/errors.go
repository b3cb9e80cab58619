package ticket

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is matching against the typed errors below
var (
	ErrNotFound          = errors.New("ticket not found")
	ErrIllegalTransition = errors.New("illegal transition")
	ErrTerminalState     = errors.New("ticket is in a terminal state")
	ErrValidation        = errors.New("validation failed")
	ErrStorage           = errors.New("storage failure")
)

// NotFoundError is returned when no ticket has the requested ID
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("ticket %s not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IllegalTransitionError is returned for a (from, to) pair outside the
// transition graph
type IllegalTransitionError struct {
	ID   string
	From Status
	To   Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("ticket %s: illegal transition %s -> %s", e.ID, e.From, e.To)
}

func (e *IllegalTransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

// TerminalStateError is returned when a COMPLETED or CANCELLED ticket is
// asked to change. It also matches ErrIllegalTransition.
type TerminalStateError struct {
	ID        string
	Status    Status
	Requested Status
}

func (e *TerminalStateError) Error() string {
	if e.Requested == "" {
		return fmt.Sprintf("ticket %s is %s and can no longer be modified", e.ID, e.Status)
	}
	return fmt.Sprintf("ticket %s is %s and cannot move to %s", e.ID, e.Status, e.Requested)
}

func (e *TerminalStateError) Is(target error) bool {
	return target == ErrTerminalState || target == ErrIllegalTransition
}

// ValidationError is returned when a required field is missing or malformed
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StorageError wraps I/O failures, timeouts and corrupt persisted state
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("storage: %s failed", e.Op)
	}
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err as a StorageError unless it already carries
// one of the typed errors in this package.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsTyped(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsTyped reports whether err matches any of the package sentinels
func IsTyped(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrIllegalTransition) ||
		errors.Is(err, ErrTerminalState) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrStorage)
}
