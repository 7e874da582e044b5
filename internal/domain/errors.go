package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrProviderFailure = errors.New("provider failure")
	ErrTokenMismatch   = errors.New("verification token mismatch")
	ErrTokenExpired    = errors.New("verification token expired")
	ErrResultNotReady  = errors.New("result not ready")
)

// ValidationError reports a rejected submission. Intake fails closed: when a
// ValidationError is returned, no job record exists.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for the given submission field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
