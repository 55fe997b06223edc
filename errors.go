package identity

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes let HTTP layers and clients discriminate failure kinds
// without matching on error messages.
const (
	TextCodeDuplicateIdentity  = "DUPLICATE_IDENTITY"
	TextCodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	TextCodeInvalidCreds       = "INVALID_CREDENTIALS"
	TextCodePasswordMismatch   = "PASSWORD_CONFIRMATION_MISMATCH"
	TextCodePermissionDenied   = "PERMISSION_DENIED"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeTokenSignature     = "TOKEN_SIGNATURE_INVALID"
	TextCodeTokenKindMismatch  = "TOKEN_KIND_MISMATCH"
	TextCodeUnknownProfile     = "UNKNOWN_PROFILE"
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
	TextCodeAccountNotVerified = "ACCOUNT_NOT_VERIFIED"
	TextCodeAccountDeactivated = "ACCOUNT_DEACTIVATED"
	TextCodeAlreadyVerified    = "ACCOUNT_ALREADY_VERIFIED"
)

// ErrDuplicateIdentity is returned when the email or username handle is
// already taken, compared case-insensitively.
var ErrDuplicateIdentity = errors.New("an account already exists with that email or username", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateIdentity).
	WithCode(errors.CodeConflict)

// ErrAccountNotFound is the error we return for missing accounts
var ErrAccountNotFound = errors.New("account not found", errors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(errors.CodeNotFound)

// ErrInvalidCredentials covers both a failed password comparison and a
// lookup miss during login, so callers cannot probe for registered emails.
var ErrInvalidCredentials = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrPasswordMismatch is returned when the new password and its
// confirmation disagree.
var ErrPasswordMismatch = errors.New("password and confirmation do not match", errors.CategoryValidation).
	WithTextCode(TextCodePasswordMismatch).
	WithCode(errors.CodeBadRequest)

// ErrPermissionDenied is raised before any mutation when the acting
// account lacks the required capability.
var ErrPermissionDenied = errors.New("you are not allowed to perform this operation", errors.CategoryAuthz).
	WithTextCode(TextCodePermissionDenied).
	WithCode(errors.CodeForbidden)

// ErrTokenExpired is returned when a token's expiry is in the past.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenSignatureInvalid is returned when the recomputed signature does
// not match the one embedded in the token.
var ErrTokenSignatureInvalid = errors.New("token signature is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeTokenSignature).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when the payload cannot be parsed into
// subject, kind, and expiry.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTokenKindMismatch is returned when a well-formed token of the wrong
// kind is presented, e.g. an access token at the refresh endpoint.
var ErrTokenKindMismatch = errors.New("token kind does not match the expected kind", errors.CategoryAuth).
	WithTextCode(TextCodeTokenKindMismatch).
	WithCode(errors.CodeUnauthorized)

// ErrUnknownProfile is returned for profile names outside the closed enum.
var ErrUnknownProfile = errors.New("unknown profile name", errors.CategoryValidation).
	WithTextCode(TextCodeUnknownProfile).
	WithCode(errors.CodeBadRequest)

// ErrNoEmptyPassword rejects empty plaintext before it reaches the hasher.
var ErrNoEmptyPassword = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrAccountNotVerified blocks authentication for accounts that never
// confirmed their email.
var ErrAccountNotVerified = errors.New("account email has not been verified", errors.CategoryAuth).
	WithTextCode(TextCodeAccountNotVerified).
	WithCode(errors.CodeUnauthorized)

// ErrAccountDeactivated blocks authentication and refresh for accounts an
// administrator deactivated.
var ErrAccountDeactivated = errors.New("account has been deactivated", errors.CategoryAuth).
	WithTextCode(TextCodeAccountDeactivated).
	WithCode(errors.CodeUnauthorized)

// ErrAlreadyVerified is returned when a verification code was already
// consumed for this account.
var ErrAlreadyVerified = errors.New("account is already verified", errors.CategoryConflict).
	WithTextCode(TextCodeAlreadyVerified).
	WithCode(errors.CodeConflict)

// withMetadata attaches per-call metadata to a fresh wrapper around a
// shared error var. The var itself is never mutated: WithMetadata writes
// its receiver in place, so calling it on the shared instance would leak
// one request's details into every later failure and race under
// concurrent writes. errors.Is still matches the var through Unwrap.
func withMetadata(shared *errors.Error, metadata map[string]any) *errors.Error {
	return errors.Wrap(shared, shared.Category, shared.Message).
		WithTextCode(shared.TextCode).
		WithCode(shared.Code).
		WithMetadata(metadata)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}

	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for malformed token errors
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenMalformed {
		return true
	}

	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
