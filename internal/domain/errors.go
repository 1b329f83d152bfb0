package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound covers a missing backing collection as well as a failed id
// lookup. Handlers map it to 404.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed or out-of-range input on a mutating call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
