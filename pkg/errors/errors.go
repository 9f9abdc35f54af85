package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details []string  `json:"details,omitempty"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	msg := e.Message
	if len(e.Details) > 0 {
		msg = fmt.Sprintf("%s (%s)", msg, strings.Join(e.Details, "; "))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrInternal
	ErrWeakPassword
	ErrUnavailable
	ErrInvalidConfig
)

func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal error",
		Err:     err,
	}
}

// WeakPassword carries the policy errors that rejected a password.
func WeakPassword(details []string) *AppError {
	return &AppError{
		Code:    ErrWeakPassword,
		Message: "password does not meet policy",
		Details: details,
	}
}

func Unavailable(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrUnavailable,
		Message: fmt.Sprintf("%s unavailable", resource),
		Err:     err,
	}
}

func InvalidConfig(message string, err error) *AppError {
	return &AppError{
		Code:    ErrInvalidConfig,
		Message: message,
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return NewNotFound(resource, err)
}

func BadRequest(message string, err error) *AppError {
	return NewBadRequest(message, err)
}

func Internal(err error) *AppError {
	return NewInternal(err)
}

// CodeOf returns the code of the first AppError in err's chain, or 0.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return 0
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
