package types

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the payload of the session cookie token.
type SessionClaims struct {
	Email string  `json:"email"`
	Name  *string `json:"name"`
	jwt.RegisteredClaims
}

// PasswordResetClaims is the payload of a password reset token. Timestamp is the
// issuance time in Unix milliseconds.
type PasswordResetClaims struct {
	Timestamp int64 `json:"ts"`
	jwt.RegisteredClaims
}

// SessionUser is the public view of the signed-in user.
type SessionUser struct {
	ID    int64   `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}
