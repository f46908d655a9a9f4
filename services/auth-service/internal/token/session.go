package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	authtypes "github.com/vasapolrittideah/berberpazar/services/auth-service/pkg/types"
	"github.com/vasapolrittideah/berberpazar/shared/auth"
)

const (
	SessionTokenTTL = 7 * 24 * time.Hour
	ResetTokenTTL   = 30 * time.Minute
)

var ErrMissingSecret = errors.New("token signing secret is empty")

// SessionTokens issues and verifies the session cookie token.
type SessionTokens struct {
	jwtAuth auth.JWTAuthenticator
	secret  string
}

func NewSessionTokens(jwtAuth auth.JWTAuthenticator, secret string) (*SessionTokens, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	return &SessionTokens{
		jwtAuth: jwtAuth,
		secret:  secret,
	}, nil
}

// Issue signs a session token for the user, valid for SessionTokenTTL.
func (t *SessionTokens) Issue(user authtypes.SessionUser) (string, error) {
	now := t.jwtAuth.Now()
	claims := authtypes.SessionClaims{
		Email: user.Email,
		Name:  user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    t.jwtAuth.Issuer(),
			Audience:  jwt.ClaimStrings{t.jwtAuth.Audience()},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTokenTTL)),
		},
	}

	return t.jwtAuth.GenerateToken(claims, t.secret)
}

// Verify returns the claims of a valid token. Every failure collapses to false.
func (t *SessionTokens) Verify(tokenString string) (*authtypes.SessionClaims, bool) {
	if tokenString == "" {
		return nil, false
	}

	var claims authtypes.SessionClaims
	if _, err := t.jwtAuth.ValidateTokenWithClaims(tokenString, t.secret, &claims); err != nil {
		return nil, false
	}

	if _, err := UserID(&claims); err != nil {
		return nil, false
	}

	return &claims, true
}

// UserID parses the numeric user id from the subject claim.
func UserID(claims jwt.Claims) (int64, error) {
	sub, err := claims.GetSubject()
	if err != nil {
		return 0, err
	}

	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("subject is not a user id")
	}

	return id, nil
}
