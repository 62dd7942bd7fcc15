package proposal

import (
	"errors"
	"fmt"
)

// Every error returned by Service wraps exactly one of these.
var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidState         = errors.New("invalid state")
	ErrForbidden            = errors.New("forbidden")
	ErrConflict             = errors.New("conflict")
	ErrValidation           = errors.New("validation failed")
	ErrNoApproversAvailable = errors.New("no approvers available")
)

// PermissionError is returned by Guard when an actor may not perform an action.
type PermissionError struct {
	Action Action
	Reason string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("forbidden: cannot %s proposal: %s", e.Action, e.Reason)
}

func (e *PermissionError) Unwrap() error {
	return ErrForbidden
}

func deny(action Action, format string, args ...any) error {
	return &PermissionError{Action: action, Reason: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
