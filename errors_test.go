package identity_test

import (
	"errors"
	"net/http"
	"testing"

	identity "github.com/forumhub/go-identity"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorCategories(t *testing.T) {
	tests := []struct {
		name     string
		err      *goerrors.Error
		category goerrors.Category
		code     int
		textCode string
	}{
		{
			name:     "duplicate identity",
			err:      identity.ErrDuplicateIdentity,
			category: goerrors.CategoryConflict,
			code:     http.StatusConflict,
			textCode: identity.TextCodeDuplicateIdentity,
		},
		{
			name:     "account not found",
			err:      identity.ErrAccountNotFound,
			category: goerrors.CategoryNotFound,
			code:     http.StatusNotFound,
			textCode: identity.TextCodeAccountNotFound,
		},
		{
			name:     "invalid credentials",
			err:      identity.ErrInvalidCredentials,
			category: goerrors.CategoryAuth,
			code:     http.StatusUnauthorized,
			textCode: identity.TextCodeInvalidCreds,
		},
		{
			name:     "password mismatch",
			err:      identity.ErrPasswordMismatch,
			category: goerrors.CategoryValidation,
			code:     http.StatusBadRequest,
			textCode: identity.TextCodePasswordMismatch,
		},
		{
			name:     "permission denied",
			err:      identity.ErrPermissionDenied,
			category: goerrors.CategoryAuthz,
			code:     http.StatusForbidden,
			textCode: identity.TextCodePermissionDenied,
		},
		{
			name:     "token expired",
			err:      identity.ErrTokenExpired,
			category: goerrors.CategoryAuth,
			code:     http.StatusUnauthorized,
			textCode: identity.TextCodeTokenExpired,
		},
		{
			name:     "already verified",
			err:      identity.ErrAlreadyVerified,
			category: goerrors.CategoryConflict,
			code:     http.StatusConflict,
			textCode: identity.TextCodeAlreadyVerified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.textCode, tt.err.TextCode)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestIsTokenExpiredError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "structured token expired error",
			err:      identity.ErrTokenExpired,
			expected: true,
		},
		{
			name:     "legacy token expired error (string match)",
			err:      errors.New("some wrapper: token is expired"),
			expected: true,
		},
		{
			name:     "different structured error",
			err:      identity.ErrAccountNotFound,
			expected: false,
		},
		{
			name:     "different legacy error",
			err:      errors.New("invalid token"),
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, identity.IsTokenExpiredError(tt.err))
		})
	}
}

func TestIsMalformedError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "structured malformed error",
			err:      identity.ErrTokenMalformed,
			expected: true,
		},
		{
			name:     "legacy malformed error (string match)",
			err:      errors.New("jwt: token is malformed"),
			expected: true,
		},
		{
			name:     "expired is not malformed",
			err:      identity.ErrTokenExpired,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, identity.IsMalformedError(tt.err))
		})
	}
}
