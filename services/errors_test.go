package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeNotFound, "resource not found", baseErr)

	assert.Equal(t, ErrorTypeNotFound, domainErr.Type)
	assert.Equal(t, "resource not found", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.NotNil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name:    "error with wrapped error",
			err:     &DomainError{Type: ErrorTypeNotFound, Message: "profile not found", Err: errors.New("db error")},
			wantMsg: "not_found: profile not found (db error)",
		},
		{
			name:    "error without wrapped error",
			err:     &DomainError{Type: ErrorTypeValidation, Message: "invalid input"},
			wantMsg: "validation: invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeInternal, "internal error", baseErr)

	assert.Equal(t, baseErr, errors.Unwrap(domainErr))
	assert.ErrorIs(t, domainErr, baseErr)
}

func TestDomainError_Is(t *testing.T) {
	t.Run("wrapped sentinel matches itself", func(t *testing.T) {
		err := ErrAdminCheckFailed.Wrap(errors.New("connection reset"))
		assert.ErrorIs(t, err, ErrAdminCheckFailed)
	})

	t.Run("same type different message does not match", func(t *testing.T) {
		err := ErrNoAuthenticatedUser.Wrap(nil)
		assert.NotErrorIs(t, err, ErrAuthCheckFailed)
		assert.ErrorIs(t, err, ErrNoAuthenticatedUser)
	})

	t.Run("type-only target matches any message", func(t *testing.T) {
		err := ErrTokenExpired.Wrap(nil)
		assert.ErrorIs(t, err, &DomainError{Type: ErrorTypeUnauthorized})
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("guard: %w", ErrAdminCheckFailed.Wrap(errors.New("boom")))
		assert.ErrorIs(t, err, ErrAdminCheckFailed)
	})

	t.Run("non domain target", func(t *testing.T) {
		assert.False(t, ErrNotAdmin.Is(errors.New("admin privileges required")))
	})
}

func TestDomainError_Wrap(t *testing.T) {
	cause := errors.New("timeout")
	wrapped := ErrBackendError.Wrap(cause)

	require.NotSame(t, ErrBackendError, wrapped)
	assert.Equal(t, ErrBackendError.Type, wrapped.Type)
	assert.Equal(t, ErrBackendError.Message, wrapped.Message)
	assert.Equal(t, cause, wrapped.Err)
	assert.Nil(t, ErrBackendError.Err, "sentinel must stay untouched")
}

func TestDomainError_WithDetail(t *testing.T) {
	err := NewDomainError(ErrorTypeValidation, "invalid input", nil).
		WithDetail("field", "email").
		WithDetail("reason", "missing")

	assert.Equal(t, "email", err.Details["field"])
	assert.Equal(t, "missing", err.Details["reason"])

	bare := &DomainError{Type: ErrorTypeValidation}
	bare.WithDetail("k", "v")
	assert.Equal(t, "v", bare.Details["k"])
}

func TestErrorTypeCheckers(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		checker func(error) bool
	}{
		{"not found", ErrProfileNotFound, IsNotFoundError},
		{"validation", ErrInvalidInput, IsValidationError},
		{"unauthorized", ErrNoAuthenticatedUser, IsUnauthorizedError},
		{"bad credentials", ErrInvalidCredentials, IsUnauthorizedError},
		{"forbidden", ErrNotAdmin, IsForbiddenError},
		{"conflict", ErrDuplicateEmail, IsConflictError},
		{"internal", ErrDatabaseError, IsInternalError},
		{"external", ErrAdminCheckFailed, IsExternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.checker(tt.err))
			assert.True(t, tt.checker(fmt.Errorf("wrapped: %w", tt.err)))
			assert.False(t, tt.checker(errors.New("plain")))
			assert.False(t, tt.checker(nil))
		})
	}
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, ErrorTypeExternal, GetErrorType(ErrBackendUnavailable))
	assert.Equal(t, ErrorType(""), GetErrorType(errors.New("plain")))
}

func TestGetErrorDetails(t *testing.T) {
	err := NewDomainError(ErrorTypeValidation, "bad", nil).WithDetail("field", "password")
	assert.Equal(t, "password", GetErrorDetails(err)["field"])
	assert.Nil(t, GetErrorDetails(errors.New("plain")))
}

func TestWrapHelpers(t *testing.T) {
	base := errors.New("base")

	err := WrapError(ErrorTypeConflict, "duplicate", base)
	assert.True(t, IsConflictError(err))
	assert.ErrorIs(t, err, base)

	assert.True(t, IsInternalError(WrapInternal("db", base)))
	assert.True(t, IsExternalError(WrapExternal("gotrue", base)))
}
