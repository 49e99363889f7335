package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"
	ErrorTypeExternal     ErrorType = "external"
)

// DomainError represents a structured error with additional context.
// It is the Go rendition of a backend {data, error} pair: a nil error means Ok,
// a DomainError carries the kind and message of the failure.
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is. Two domain errors match when they share a type and,
// if the target names a message, the same message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if e.Type != t.Type {
		return false
	}
	return t.Message == "" || e.Message == t.Message
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Wrap returns a copy of the sentinel carrying cause as its wrapped error
func (e *DomainError) Wrap(cause error) *DomainError {
	return NewDomainError(e.Type, e.Message, cause)
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Not Found Errors
	ErrProfileNotFound = NewDomainError(ErrorTypeNotFound, "profile not found", nil)
	ErrRouteNotFound   = NewDomainError(ErrorTypeNotFound, "endpoint not found", nil)

	// Validation Errors
	ErrInvalidInput = NewDomainError(ErrorTypeValidation, "invalid input", nil)

	// Authorization Errors
	ErrUnauthorized        = NewDomainError(ErrorTypeUnauthorized, "authentication required", nil)
	ErrInvalidCredentials  = NewDomainError(ErrorTypeUnauthorized, "invalid login credentials", nil)
	ErrAuthCheckFailed     = NewDomainError(ErrorTypeUnauthorized, "authentication check failed", nil)
	ErrNoAuthenticatedUser = NewDomainError(ErrorTypeUnauthorized, "no authenticated user", nil)
	ErrInvalidToken        = NewDomainError(ErrorTypeUnauthorized, "invalid authentication token", nil)
	ErrTokenExpired        = NewDomainError(ErrorTypeUnauthorized, "authentication token expired", nil)

	// Permission Errors
	ErrNotAdmin = NewDomainError(ErrorTypeForbidden, "admin privileges required", nil)

	// Conflict Errors
	ErrDuplicateEmail = NewDomainError(ErrorTypeConflict, "email already exists", nil)

	// Internal Errors
	ErrInternal          = NewDomainError(ErrorTypeInternal, "internal server error", nil)
	ErrDatabaseError     = NewDomainError(ErrorTypeInternal, "database error", nil)
	ErrTransactionFailed = NewDomainError(ErrorTypeInternal, "transaction failed", nil)

	// External Backend Errors
	ErrBackendError       = NewDomainError(ErrorTypeExternal, "auth backend error", nil)
	ErrBackendUnavailable = NewDomainError(ErrorTypeExternal, "auth backend unavailable", nil)
	ErrAdminCheckFailed   = NewDomainError(ErrorTypeExternal, "admin check failed", nil)
	ErrUpstreamError      = NewDomainError(ErrorTypeExternal, "upstream service error", nil)
)

// Error type checking helper functions

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	return GetErrorType(err) == ErrorTypeUnauthorized
}

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool {
	return GetErrorType(err) == ErrorTypeForbidden
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	return GetErrorType(err) == ErrorTypeConflict
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeInternal
}

// IsExternalError checks if an error is an external backend error
func IsExternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeExternal
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// WrapExternal wraps an error as an external backend error
func WrapExternal(message string, err error) error {
	return NewDomainError(ErrorTypeExternal, message, err)
}
