package shared

import (
	"errors"
	"fmt"
)

// Error codes shared by every bounded context.
const (
	CodeInvalidArgument   = "INVALID_ARGUMENT"
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodePropertyNotFound  = "PROPERTY_NOT_FOUND"
	CodeStorageFailure    = "STORAGE_FAILURE"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches any DomainError carrying the same code, so callers can write
// errors.Is(err, shared.ErrNotFound) regardless of the message.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidArgument   = NewDomainError(CodeInvalidArgument, "Invalid argument")
	ErrNotFound          = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidTransition = NewDomainError(CodeInvalidTransition, "Status transition not allowed")
	ErrPropertyNotFound  = NewDomainError(CodePropertyNotFound, "No active property for resident")
	ErrStorageFailure    = NewDomainError(CodeStorageFailure, "Storage operation failed")
	ErrUnauthorized      = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden         = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
)

// InvalidArgument builds an INVALID_ARGUMENT error naming the failed precondition.
func InvalidArgument(format string, args ...any) *DomainError {
	return NewDomainError(CodeInvalidArgument, fmt.Sprintf(format, args...))
}

// NotFound builds a NOT_FOUND error for the given resource.
func NotFound(format string, args ...any) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf(format, args...))
}

// InvalidTransition builds an INVALID_TRANSITION error.
func InvalidTransition(format string, args ...any) *DomainError {
	return NewDomainError(CodeInvalidTransition, fmt.Sprintf(format, args...))
}

// StorageFailure wraps a store error. The message stays generic for callers.
func StorageFailure(op string, cause error) *DomainError {
	return &DomainError{
		Code:    CodeStorageFailure,
		Message: "storage failure during " + op,
		Cause:   cause,
	}
}

// CodeOf extracts the domain error code, or "" when err is not a DomainError.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
