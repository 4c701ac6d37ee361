// Package errors defines the sentinel errors shared across the service
// and maps them to HTTP status codes at the transport boundary.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidArgument covers every input validation failure: a
	// negative or duplicate document id, text containing a control
	// character, a malformed minus term, or an invalid stop word at
	// construction.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrOutOfRange covers positional lookups past the end of the id
	// sequence and match requests against unknown document ids.
	ErrOutOfRange = errors.New("out of range")

	ErrRateLimited = errors.New("rate limit exceeded")
	ErrInternal    = errors.New("internal error")
	ErrTimeout     = errors.New("operation timed out")
)

// AppError attaches a human-readable message and an HTTP status to a
// sentinel error.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New wraps a sentinel in an AppError.
func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Newf is New with Sprintf-style message formatting.
func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode resolves the HTTP status for an error, following the
// AppError status when present and the sentinel chain otherwise.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
