// Package errors defines the error taxonomy shared by the corpus, frequency,
// index, and retrieval layers: NotFound, IOFailure, and InvalidInput
// sentinels, plus an AppError wrapper carrying a contextual message and an
// HTTP status for the service layer.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound covers load paths that do not resolve to an eligible text
	// file or directory, and frequency queries against documents that were
	// never analyzed.
	ErrNotFound = errors.New("not found")
	// ErrIOFailure covers file read and result write failures. The wrapped
	// message names the offending path and the underlying cause.
	ErrIOFailure = errors.New("io failure")
	// ErrInvalidInput covers out-of-range or unparseable query parameters.
	ErrInvalidInput = errors.New("invalid input")
)

// AppError pairs a sentinel with a contextual message and an HTTP status.
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

// Newf is New with Sprintf-style message formatting.
func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// NotFoundf returns an ErrNotFound wrapped with a formatted message.
func NotFoundf(format string, args ...any) error {
	return Newf(ErrNotFound, http.StatusNotFound, format, args...)
}

// IOFailuref returns an ErrIOFailure wrapped with a formatted message.
func IOFailuref(format string, args ...any) error {
	return Newf(ErrIOFailure, http.StatusInternalServerError, format, args...)
}

// InvalidInputf returns an ErrInvalidInput wrapped with a formatted message.
func InvalidInputf(format string, args ...any) error {
	return Newf(ErrInvalidInput, http.StatusBadRequest, format, args...)
}

// HTTPStatusCode maps an error to the HTTP status the service layer should
// report. Unknown errors map to 500.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
