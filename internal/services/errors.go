package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrConfiguration  = errors.New("configuration error")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrEngine         = errors.New("engine failure")
	ErrNotInitialized = errors.New("not initialized")
	ErrPoisoned       = errors.New("state poisoned")
	ErrTransient      = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later status classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// markedError reports message verbatim while still matching marker via errors.Is.
type markedError struct {
	marker  error
	message string
	cause   error
}

func (e *markedError) Error() string { return e.message }

func (e *markedError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.marker, e.cause}
	}
	return []error{e.marker}
}

// Fail returns an error whose text is exactly message. Caller-visible runtime
// errors use it so clients can match on stable strings.
func Fail(marker error, message string) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &markedError{marker: marker, message: message}
}

// Failf is Fail with formatting. A %w verb in format is kept as the cause.
func Failf(marker error, format string, args ...any) error {
	if marker == nil {
		marker = ErrTransient
	}
	formatted := fmt.Errorf(format, args...)
	return &markedError{marker: marker, message: formatted.Error(), cause: errors.Unwrap(formatted)}
}

// HTTPStatus maps an error's marker to the status code the API responds with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrNotInitialized):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrEngine):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
