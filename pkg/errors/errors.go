package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced by the sync engine and the broker API.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeNetwork    = "NETWORK_ERROR"
	CodeConflict   = "CONFLICT"
	CodeNotFound   = "NOT_FOUND"
	CodeForbidden  = "FORBIDDEN"
	CodeInternal   = "INTERNAL_ERROR"

	// CodeStaleFetch marks a superseded poll result. It is logged and
	// discarded inside the engine, never returned to a caller.
	CodeStaleFetch = "STALE_FETCH"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Validation reports a malformed local intent. It never reaches the network.
func Validation(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// Network reports a transport or timeout failure. Retryable by the caller.
func Network(message string, err error) *AppError {
	return &AppError{
		Code:    CodeNetwork,
		Message: message,
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

// Conflict reports an operation the server rejected as semantically invalid
// (conversation closed, actor not a participant). Not retryable.
func Conflict(message string, err error) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
		Status:  http.StatusConflict,
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func Forbidden(message string, err error) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Retryable reports whether the caller may usefully retry the operation.
// Only network-class failures qualify; the engine itself never retries.
func Retryable(err error) bool {
	return Is(err, CodeNetwork)
}
