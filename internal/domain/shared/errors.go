package shared

import (
	"errors"
	"fmt"
)

// Error codes shared by every bounded context
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeOverReceipt         = "OVER_RECEIPT"
	CodeUpstream            = "UPSTREAM_ERROR"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeDuplicateRequest    = "DUPLICATE_REQUEST"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Err is the underlying cause, if any. It is never exposed to API callers.
	Err error `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code,
// so errors.Is(err, ErrNotFound) matches any not-found error.
func (e *DomainError) Is(target error) bool {
	var de *DomainError
	if !errors.As(target, &de) {
		return false
	}
	return de.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithErr returns a copy of the error carrying err as its cause
func (e *DomainError) WithErr(err error) *DomainError {
	c := *e
	c.Err = err
	return &c
}

// NewValidationError creates a validation error with a formatted message
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewNotFoundError creates a not-found error for the named resource
func NewNotFoundError(resource string) *DomainError {
	return NewDomainError(CodeNotFound, resource+" not found")
}

// NewUpstreamError wraps a failure of an external collaborator
func NewUpstreamError(service string, err error) *DomainError {
	return &DomainError{
		Code:    CodeUpstream,
		Message: service + " request failed",
		Err:     err,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput        = NewDomainError(CodeValidation, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrUpstream            = NewDomainError(CodeUpstream, "Upstream service failure")
	ErrDuplicateRequest    = NewDomainError(CodeDuplicateRequest, "Request has already been processed")
)

// IsCode reports whether err is a DomainError carrying the given code
func IsCode(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
