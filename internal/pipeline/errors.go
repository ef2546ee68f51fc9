package pipeline

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks structural input failures: a missing hospital row, a
// missing patient collection, or rows that cannot be told apart.
var ErrInvalidInput = errors.New("invalid input")

// InputError describes one structural input failure. It unwraps to
// ErrInvalidInput.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("InvalidInput: %s: %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(field, format string, args ...any) error {
	return &InputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
