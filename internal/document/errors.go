package document

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means a section or entry id no longer exists.
	ErrNotFound = errors.New("not found")

	// ErrWrongKind means the operation needs a body shape the section lacks.
	ErrWrongKind = errors.New("wrong section kind")

	// ErrInvalidPayload means external input was malformed or incomplete.
	ErrInvalidPayload = errors.New("invalid payload")
)

// PayloadError describes why an inbound payload was rejected.
type PayloadError struct {
	Field  string
	Reason string
}

func (e *PayloadError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid payload: %s", e.Reason)
	}
	return fmt.Sprintf("invalid payload: field '%s': %s", e.Field, e.Reason)
}

func (e *PayloadError) Unwrap() error { return ErrInvalidPayload }
