package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"html"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/model"
	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/notifier"
	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/token"
	"github.com/vasapolrittideah/berberpazar/shared/identifier"
	"github.com/vasapolrittideah/berberpazar/shared/security"
)

const brandName = "BerberPazar"

// PasswordResetUsecase defines the business logic for password reset token operations.
type PasswordResetUsecase interface {
	// RequestPasswordReset sends a reset link to the user behind rawIdentifier and returns
	// the channel used. Unknown identifiers succeed with an empty channel.
	RequestPasswordReset(ctx context.Context, rawIdentifier string) (string, error)

	// ResetPassword replaces the password of the user the token was issued for.
	ResetPassword(ctx context.Context, resetToken, newPassword string) error

	// ValidatePasswordResetToken checks a token without consuming it.
	ValidatePasswordResetToken(ctx context.Context, resetToken string) (int64, error)
}

// Notifier delivers a rendered message to a resolved user.
type Notifier interface {
	Deliver(ctx context.Context, kind identifier.Kind, user *model.User, msg notifier.Message) (string, error)
}

var (
	ErrTokenNotFound     = errors.New("password reset token refers to an unknown user")
	ErrTokenExpired      = errors.New("password reset token has expired")
	ErrInvalidToken      = errors.New("invalid password reset token")
	ErrNoDeliveryChannel = errors.New("no delivery channel could be used for this user")
)

type passwordResetUsecase struct {
	userRepo    repository.UserRepository
	resetTokens *token.ResetTokens
	notifier    Notifier
	appURL      string
	logger      *zerolog.Logger
	// delay runs when the identifier resolves to no user.
	delay func(ctx context.Context) error
}

// NewPasswordResetUsecase creates a new instance of PasswordResetUsecase.
func NewPasswordResetUsecase(
	userRepo repository.UserRepository,
	resetTokens *token.ResetTokens,
	notifier Notifier,
	appURL string,
	logger *zerolog.Logger,
) PasswordResetUsecase {
	return &passwordResetUsecase{
		userRepo:    userRepo,
		resetTokens: resetTokens,
		notifier:    notifier,
		appURL:      strings.TrimRight(appURL, "/"),
		logger:      logger,
		delay:       sleepEnumerationDelay,
	}
}

func (u *passwordResetUsecase) RequestPasswordReset(ctx context.Context, rawIdentifier string) (string, error) {
	id := identifier.Parse(rawIdentifier)

	user, err := u.userRepo.FindUserByIdentifier(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// To prevent enumeration, do not reveal that the identifier does not exist.
			return "", u.delay(ctx)
		}
		return "", err
	}

	tokenStr, err := u.resetTokens.Issue(user.ID)
	if err != nil {
		return "", err
	}

	channel, err := u.notifier.Deliver(ctx, id.Kind, user, u.resetMessage(user, tokenStr))
	if err != nil {
		if errors.Is(err, notifier.ErrNoChannel) {
			return "", ErrNoDeliveryChannel
		}
		return "", err
	}

	return channel, nil
}

func (u *passwordResetUsecase) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	userID, err := u.ValidatePasswordResetToken(ctx, resetToken)
	if err != nil {
		return err
	}

	passwordHash, err := security.HashPassword(strings.TrimSpace(newPassword))
	if err != nil {
		return err
	}

	if _, err := u.userRepo.UpdateUser(ctx, userID, repository.UpdateUserParams{
		PasswordHash: &passwordHash,
	}); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrTokenNotFound
		}
		return err
	}

	u.logger.Info().Int64("user_id", userID).Msg("password reset completed")

	return nil
}

func (u *passwordResetUsecase) ValidatePasswordResetToken(ctx context.Context, resetToken string) (int64, error) {
	verification, err := u.resetTokens.Verify(ctx, strings.TrimSpace(resetToken), u.userExists)
	if err != nil {
		return 0, err
	}

	switch verification.Status {
	case token.ResetValid:
		return verification.UserID, nil
	case token.ResetExpired:
		return 0, ErrTokenExpired
	case token.ResetUnknownUser:
		return 0, ErrTokenNotFound
	default:
		return 0, ErrInvalidToken
	}
}

func (u *passwordResetUsecase) userExists(ctx context.Context, userID int64) (bool, error) {
	if _, err := u.userRepo.GetUser(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (u *passwordResetUsecase) resetLink(tokenStr string) string {
	return fmt.Sprintf("%s/reset?token=%s", u.appURL, url.QueryEscape(tokenStr))
}

func (u *passwordResetUsecase) resetMessage(user *model.User, tokenStr string) notifier.Message {
	resetLink := u.resetLink(tokenStr)
	minutes := int(token.ResetTokenTTL / time.Minute)

	text := fmt.Sprintf(`%s password reset link:
%s

This link is valid for %d minutes. If you did not request a password reset, you can ignore this message.`,
		brandName, resetLink, minutes)

	name := ""
	if user.Name != nil {
		name = *user.Name
	}

	htmlBody := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p><b>Your password reset link:</b> <a href="%s">%s</a></p>
		<p>This link is valid for %d minutes.</p>
		<p>%s</p>
	`, html.EscapeString(name), html.EscapeString(resetLink), html.EscapeString(resetLink), minutes, brandName)

	return notifier.Message{
		Subject: brandName + " • Password Reset",
		Text:    text,
		HTML:    htmlBody,
	}
}

// sleepEnumerationDelay waits a random 20-40ms so unknown identifiers do not answer
// measurably faster than known ones.
func sleepEnumerationDelay(ctx context.Context) error {
	const minMs, maxMs = 20, 40

	n, err := rand.Int(rand.Reader, big.NewInt(maxMs-minMs+1))
	if err != nil {
		return err
	}

	timer := time.NewTimer(time.Duration(minMs+n.Int64()) * time.Millisecond)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
