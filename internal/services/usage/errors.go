package usage

import (
	"errors"
)

var (
	// ErrValidation is the sentinel every ValidationError unwraps to.
	ErrValidation       = errors.New("invalid usage report")
	ErrDeviceNotFound   = errors.New("device not found")
	ErrBatchTooLarge    = errors.New("batch exceeds maximum record count")
	ErrTransientStorage = errors.New("usage storage temporarily unavailable")
)

// ValidationError describes a malformed report field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + " " + e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
