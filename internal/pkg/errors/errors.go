package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetails returns a copy of the error carrying the details. The
// receiver is left untouched so the shared sentinel vars stay immutable
// under concurrent requests.
func (e *AppError) WithDetails(details interface{}) *AppError {
	detailed := *e
	detailed.Details = details
	return &detailed
}

// Is matches by status code and message, so a detailed copy still compares
// equal to its sentinel via errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// Common errors
var (
	// 400 Bad Request
	ErrBadRequest      = New(http.StatusBadRequest, "invalid request format")
	ErrValidation      = New(http.StatusBadRequest, "validation failed")
	ErrEmptyMessage    = New(http.StatusBadRequest, "message is empty")
	ErrMessageTooLong  = New(http.StatusBadRequest, "message exceeds maximum length")
	ErrInvalidVideoID  = New(http.StatusBadRequest, "invalid video id")

	// 403 Forbidden
	ErrForbidden = New(http.StatusForbidden, "access denied")
	ErrNotHost   = New(http.StatusForbidden, "only the host can do that")

	// 404 Not Found
	ErrNotFound        = New(http.StatusNotFound, "resource not found")
	ErrRoomNotFound    = New(http.StatusNotFound, "room not found")
	ErrSessionNotFound = New(http.StatusNotFound, "no active session")

	// 409 Conflict
	ErrConflict = New(http.StatusConflict, "resource conflict")

	// 422 Unprocessable Entity
	ErrRoomFull = New(http.StatusUnprocessableEntity, "room is full")

	// 429 Too Many Requests
	ErrTooManyRequests = New(http.StatusTooManyRequests, "too many requests, slow down")

	// 500 Internal Server Error
	ErrInternal = New(http.StatusInternalServerError, "internal server error")
)

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// GetHTTPStatus returns the HTTP status code for an error
func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// GetMessage returns the error message
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}
