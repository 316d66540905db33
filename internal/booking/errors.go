package booking

import (
	"errors"
	"fmt"
)

// ErrSlotUnavailable means the requested start time is no longer free. The
// caller must re-fetch availability; the service never substitutes another
// slot silently.
var ErrSlotUnavailable = errors.New("booking: slot no longer available")

// ErrNotCancellable means the appointment is in a state that cannot
// transition to cancelled.
var ErrNotCancellable = errors.New("booking: appointment cannot be cancelled")

// FieldError is a validation failure tied to a single input field. It is
// surfaced to the caller verbatim for display and never retried.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func fieldErr(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}
