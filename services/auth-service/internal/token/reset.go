package token

import (
	"context"
	"errors"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	authtypes "github.com/vasapolrittideah/berberpazar/services/auth-service/pkg/types"
	"github.com/vasapolrittideah/berberpazar/shared/auth"
)

// ResetStatus is the outcome of a reset token verification.
type ResetStatus int

const (
	ResetMalformed ResetStatus = iota
	ResetValid
	ResetExpired
	ResetUnknownUser
)

func (s ResetStatus) String() string {
	switch s {
	case ResetValid:
		return "valid"
	case ResetExpired:
		return "expired"
	case ResetUnknownUser:
		return "unknown_user"
	default:
		return "malformed"
	}
}

// ResetVerification carries the status and, when valid, the user id the token was
// issued for.
type ResetVerification struct {
	Status ResetStatus
	UserID int64
}

func (v ResetVerification) Valid() bool { return v.Status == ResetValid }

// UserExistsFunc reports whether a user id is known to the credential store.
type UserExistsFunc func(ctx context.Context, userID int64) (bool, error)

// ResetTokens issues and verifies password reset tokens signed with a secret scoped to
// the user id, so nothing about a pending reset is stored server side.
type ResetTokens struct {
	jwtAuth auth.JWTAuthenticator
	secret  string
}

func NewResetTokens(jwtAuth auth.JWTAuthenticator, secret string) (*ResetTokens, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	return &ResetTokens{
		jwtAuth: jwtAuth,
		secret:  secret,
	}, nil
}

func (t *ResetTokens) userSecret(userID int64) string {
	return t.secret + "::reset::" + strconv.FormatInt(userID, 10)
}

// Issue signs {sub, ts} for the user, valid for ResetTokenTTL.
func (t *ResetTokens) Issue(userID int64) (string, error) {
	now := t.jwtAuth.Now()
	claims := authtypes.PasswordResetClaims{
		Timestamp: now.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    t.jwtAuth.Issuer(),
			Audience:  jwt.ClaimStrings{t.jwtAuth.Audience()},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ResetTokenTTL)),
		},
	}

	return t.jwtAuth.GenerateToken(claims, t.userSecret(userID))
}

// Verify decodes the claimed subject without trusting it, checks that the user exists,
// and only then verifies signature and expiry against that user's derived secret.
// The returned error is reserved for lookup failures.
func (t *ResetTokens) Verify(ctx context.Context, tokenString string, exists UserExistsFunc) (ResetVerification, error) {
	var unverified authtypes.PasswordResetClaims
	if err := t.jwtAuth.ParseUnverified(tokenString, &unverified); err != nil {
		return ResetVerification{Status: ResetMalformed}, nil
	}

	userID, err := UserID(&unverified)
	if err != nil {
		return ResetVerification{Status: ResetMalformed}, nil
	}

	ok, err := exists(ctx, userID)
	if err != nil {
		return ResetVerification{Status: ResetMalformed}, err
	}
	if !ok {
		return ResetVerification{Status: ResetUnknownUser}, nil
	}

	var claims authtypes.PasswordResetClaims
	if _, err := t.jwtAuth.ValidateTokenWithClaims(tokenString, t.userSecret(userID), &claims); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ResetVerification{Status: ResetExpired}, nil
		}
		return ResetVerification{Status: ResetMalformed}, nil
	}

	return ResetVerification{Status: ResetValid, UserID: userID}, nil
}
