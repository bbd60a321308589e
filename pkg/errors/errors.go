// Package errors defines the error taxonomy shared by the index engine and
// the persistence layer, plus the HTTP status mapping used by external
// adapters.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidInput marks malformed caller input (empty doc id, empty
	// content, negative limit).
	ErrInvalidInput = errors.New("invalid input")
	// ErrDocumentNotFound marks a reference to an absent document. It is
	// distinct from an empty search result.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrSnapshotCorrupt marks a snapshot file that failed structural
	// validation (bad magic, version, length, or checksum).
	ErrSnapshotCorrupt = errors.New("snapshot corrupt")
	// ErrPersistence marks an I/O or serialization failure during save.
	ErrPersistence = errors.New("persistence failure")
)

// AppError carries a sentinel, a human-readable message, and the status code
// an HTTP adapter should surface.
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

// New wraps a sentinel into an AppError.
func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Newf is New with printf-style message formatting.
func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode maps an error to the status code an adapter should return.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	switch {
	case errors.Is(err, ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrSnapshotCorrupt), errors.Is(err, ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
