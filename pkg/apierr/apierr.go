// Package apierr defines the sentinel errors the store and service layers
// return, and the REST error taxonomy from which HTTP status codes are
// derived in one place (see pkg/api).
package apierr

import (
	"errors"
	"fmt"
)

// Sentinel errors dispatched by pkg/api's writeError. Validation and not-found
// errors are surfaced to the caller and never audited; upstream-unavailable
// errors are surfaced as 5xx.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrConflict           = errors.New("resource conflict")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// ValidationError wraps a client input mistake. Never audited.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validationf constructs a ValidationError with a formatted message.
func Validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf wraps ErrNotFound with context, preserving errors.Is(err, ErrNotFound).
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}
