package staging

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks rejected input: a local pre-flight failure or a 400
	// from the backend.
	ErrValidation = errors.New("validation failed")
	// ErrParse means the ingestion parser could not produce a session.
	ErrParse = errors.New("document could not be parsed")
	// ErrSessionExpired is fatal to the staging flow; the document must be uploaded again.
	ErrSessionExpired = errors.New("staging session expired")
	// ErrTransport covers network and server failures. Never retried automatically.
	ErrTransport = errors.New("transport failure")
	// ErrImageNotFound is returned by image reads so callers can show a placeholder.
	ErrImageNotFound = errors.New("staged image not found")
)

// FieldError is used to indicate an error with a specific block field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Message string
	Fields  []FieldError
}

func NewValidationError(message string, fields ...FieldError) error {
	return &ValidationError{Message: message, Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Error)
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// RemoteError is a failure reported by the backend or the transport. Kind is
// one of the sentinel errors above.
type RemoteError struct {
	Kind    error
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%v (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *RemoteError) Unwrap() error {
	return e.Kind
}

// IsRetryable reports whether the user may retry the same staging session.
// Expired sessions and parse failures require a fresh upload.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrSessionExpired) && !errors.Is(err, ErrParse)
}
