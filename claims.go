package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind discriminates access tokens from refresh tokens inside the
// signed payload, so one cannot stand in for the other.
type TokenKind string

const (
	// TokenKindAccess is the short-lived bearer credential for API calls
	TokenKindAccess TokenKind = "access"
	// TokenKindRefresh is the longer-lived credential used only to mint a
	// fresh token pair
	TokenKindRefresh TokenKind = "refresh"
)

// IsValid checks if the kind is one of the known token kinds
func (k TokenKind) IsValid() bool {
	return k == TokenKindAccess || k == TokenKindRefresh
}

// SessionClaims is the signed token payload: registered claims plus the
// subject account id and the token kind.
type SessionClaims struct {
	jwt.RegisteredClaims
	UID  string    `json:"uid,omitempty"`
	Kind TokenKind `json:"kind,omitempty"`
}

// SubjectID returns the subject account id
func (c *SessionClaims) SubjectID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// TokenKind returns the embedded kind
func (c *SessionClaims) TokenKind() TokenKind {
	return c.Kind
}

// Expires returns the expiration time
func (c *SessionClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// Issued returns the issued at time
func (c *SessionClaims) Issued() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
