// Package errors provides the error type shared by the geoprefix packages.
package errors

import (
	"errors"
	"fmt"
)

// Standard error codes.
const (
	CodeInternal        = "INTERNAL_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeBadRequest      = "BAD_REQUEST"
	CodeValidation      = "VALIDATION_ERROR"
	CodeInvalidConfig   = "INVALID_CONFIG"
	CodeInvalidShape    = "INVALID_SHAPE"
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeDecode          = "DECODE_ERROR"
	CodeUnavailable     = "SERVICE_UNAVAILABLE"
	CodeRateLimited     = "RATE_LIMITED"
)

// AppError represents an error with a stable code and a human readable message.
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetails adds details to the error.
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// WithDetail adds a single detail to the error.
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Wrap wraps an error with an AppError.
func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// New creates a new AppError.
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message.
func Newf(code, format string, args ...any) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Common error constructors.

// Internal creates an internal error.
func Internal(message string) *AppError {
	return New(CodeInternal, message)
}

// InternalWrap wraps an error as an internal error.
func InternalWrap(err error, message string) *AppError {
	return Wrap(err, CodeInternal, message)
}

// NotFound creates a not found error.
func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// BadRequest creates a bad request error.
func BadRequest(message string) *AppError {
	return New(CodeBadRequest, message)
}

// Validation creates a validation error.
func Validation(message string) *AppError {
	return New(CodeValidation, message)
}

// ValidationWithDetails creates a validation error with field details.
func ValidationWithDetails(message string, details map[string]string) *AppError {
	return New(CodeValidation, message).WithDetails(details)
}

// InvalidConfig creates a configuration error. Grid constructors return it.
func InvalidConfig(format string, args ...any) *AppError {
	return Newf(CodeInvalidConfig, format, args...)
}

// InvalidShape creates an error for geometry that cannot be indexed.
func InvalidShape(format string, args ...any) *AppError {
	return Newf(CodeInvalidShape, format, args...)
}

// InvalidArgument creates an error for an out of range argument.
func InvalidArgument(format string, args ...any) *AppError {
	return Newf(CodeInvalidArgument, format, args...)
}

// Decode creates an error for malformed cell token bytes.
func Decode(format string, args ...any) *AppError {
	return Newf(CodeDecode, format, args...)
}

// Unavailable creates a service unavailable error.
func Unavailable(message string) *AppError {
	return New(CodeUnavailable, message)
}

// UnavailableWrap wraps a backend failure as a service unavailable error.
func UnavailableWrap(err error, message string) *AppError {
	return Wrap(err, CodeUnavailable, message)
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return Code(err) == CodeNotFound
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return Code(err) == CodeValidation
}

// IsInvalidConfig checks if the error is a configuration error.
func IsInvalidConfig(err error) bool {
	return Code(err) == CodeInvalidConfig
}

// IsInvalidShape checks if the error is a shape error.
func IsInvalidShape(err error) bool {
	return Code(err) == CodeInvalidShape
}

// IsInvalidArgument checks if the error is an argument error.
func IsInvalidArgument(err error) bool {
	return Code(err) == CodeInvalidArgument
}

// IsDecode checks if the error is a token decode error.
func IsDecode(err error) bool {
	return Code(err) == CodeDecode
}

// Code returns the error code or empty string.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// As is errors.As from the standard library.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is is errors.Is from the standard library.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
