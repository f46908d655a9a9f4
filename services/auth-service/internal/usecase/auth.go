package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/model"
	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/token"
	authtypes "github.com/vasapolrittideah/berberpazar/services/auth-service/pkg/types"
	"github.com/vasapolrittideah/berberpazar/shared/identifier"
	"github.com/vasapolrittideah/berberpazar/shared/provider"
	"github.com/vasapolrittideah/berberpazar/shared/security"
	"github.com/vasapolrittideah/berberpazar/shared/turkish"
)

// AuthUsecase defines the interface for authentication-related use cases.
type AuthUsecase interface {
	Login(ctx context.Context, params LoginParams) (*AuthResult, error)
	Register(ctx context.Context, params RegisterParams) (*AuthResult, error)
	GoogleLogin(ctx context.Context, idToken string) (*AuthResult, error)
	// CurrentUser loads the user behind verified session claims.
	CurrentUser(ctx context.Context, claims *authtypes.SessionClaims) (*model.User, error)
	ChangePassword(ctx context.Context, userID int64, params ChangePasswordParams) error
	GetProfile(ctx context.Context, userID int64) (*model.User, error)
	UpdateProfile(ctx context.Context, userID int64, params UpdateProfileParams) (*model.User, error)
}

// LoginParams defines the parameters for user login.
type LoginParams struct {
	Identifier string
	Password   string
}

// RegisterParams defines the parameters for user registration.
type RegisterParams struct {
	Email    string
	Password string
	Name     string
	Phone    string
	City     string
}

// ChangePasswordParams defines the parameters for changing the password of a signed-in user.
type ChangePasswordParams struct {
	CurrentPassword string
	NewPassword     string
}

// UpdateProfileParams mirrors repository.UpdateUserParams with raw user input.
type UpdateProfileParams struct {
	Name           *string
	City           *string
	Phone          *string
	SecondaryEmail *string
	AvatarURL      *string
}

// AuthResult is a signed-in user and the session token to hand back as a cookie.
type AuthResult struct {
	User  *model.User
	Token string
}

// SessionUser returns the public view of the user.
func (r *AuthResult) SessionUser() *authtypes.SessionUser {
	return ToSessionUser(r.User)
}

func ToSessionUser(u *model.User) *authtypes.SessionUser {
	if u == nil {
		return nil
	}
	return &authtypes.SessionUser{ID: u.ID, Email: u.Email, Name: u.Name}
}

var (
	ErrUserAlreadyExists       = errors.New("user already exists")
	ErrPhoneAlreadyExists      = errors.New("phone is already registered")
	ErrSecondaryEmailInUse     = errors.New("secondary email is used by another account")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrInvalidPhone            = errors.New("phone number format is not supported")
	ErrInvalidCity             = errors.New("city must be one of the 81 provinces")
	ErrIncorrectPassword       = errors.New("current password is incorrect")
	ErrSamePassword            = errors.New("new password must differ from the current password")
	ErrUserNotFound            = errors.New("user not found")
	ErrGoogleDisabled          = errors.New("google sign-in is not configured")
	ErrInvalidGoogleToken      = errors.New("invalid google id token")
	ErrSecondaryEmailIsPrimary = errors.New("secondary email must differ from the primary email")
	ErrNameTooLong             = errors.New("name must be at most 80 characters")
)

// GoogleTokenValidator validates Google ID tokens.
type GoogleTokenValidator interface {
	Enabled() bool
	ValidateIDToken(ctx context.Context, idToken string) (*provider.GoogleIdentity, error)
}

type authUsecase struct {
	userRepo      repository.UserRepository
	sessionTokens *token.SessionTokens
	google        GoogleTokenValidator
	logger        *zerolog.Logger
	verify        func(password, hash string) (bool, error)
}

func NewAuthUsecase(
	userRepo repository.UserRepository,
	sessionTokens *token.SessionTokens,
	google GoogleTokenValidator,
	logger *zerolog.Logger,
) AuthUsecase {
	return &authUsecase{
		userRepo:      userRepo,
		sessionTokens: sessionTokens,
		google:        google,
		logger:        logger,
		verify:        security.VerifyPassword,
	}
}

func (u *authUsecase) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	id := identifier.Parse(params.Identifier)
	password := strings.TrimSpace(params.Password)

	user, err := u.userRepo.FindUserByIdentifier(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			u.verifyDummy(password)
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	if !user.HasPassword() {
		u.verifyDummy(password)
		return nil, ErrInvalidCredentials
	}

	if ok, err := u.verify(password, *user.PasswordHash); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrInvalidCredentials
	}

	if security.NeedsRehash(*user.PasswordHash) {
		u.rehash(ctx, user, password)
	}

	return u.createAuthSession(user)
}

// verifyDummy spends one password verification so that a missing account answers as
// slowly as a wrong password.
func (u *authUsecase) verifyDummy(password string) {
	_, _ = u.verify(password, security.DummyHash())
}

// rehash upgrades a legacy hash. Failure only costs the upgrade, never the login.
func (u *authUsecase) rehash(ctx context.Context, user *model.User, password string) {
	passwordHash, err := security.HashPassword(password)
	if err != nil {
		u.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to rehash legacy password")
		return
	}

	if _, err := u.userRepo.UpdateUser(ctx, user.ID, repository.UpdateUserParams{
		PasswordHash: &passwordHash,
	}); err != nil {
		u.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to store rehashed password")
		return
	}

	user.PasswordHash = &passwordHash
}

func (u *authUsecase) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	user := &model.User{
		Email: identifier.NormalizeEmail(params.Email),
		Name:  optional(params.Name),
	}

	// The address must not already sign in another account, as primary or secondary.
	if _, err := u.userRepo.FindUserByIdentifier(ctx, identifier.Parse(user.Email)); err == nil {
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	if raw := strings.TrimSpace(params.Phone); raw != "" {
		phone, ok := identifier.LocalPhone(raw)
		if !ok {
			return nil, ErrInvalidPhone
		}
		user.Phone = &phone
	}

	if raw := strings.TrimSpace(params.City); raw != "" {
		city, ok := turkish.CanonicalCity(raw)
		if !ok {
			return nil, ErrInvalidCity
		}
		user.City = &city
	}

	passwordHash, err := security.HashPassword(strings.TrimSpace(params.Password))
	if err != nil {
		return nil, err
	}
	user.PasswordHash = &passwordHash

	user, err = u.userRepo.CreateUser(ctx, user)
	if err != nil {
		return nil, mapDuplicate(err)
	}

	u.logger.Info().Int64("user_id", user.ID).Msg("user registered")

	return u.createAuthSession(user)
}

func (u *authUsecase) GoogleLogin(ctx context.Context, idToken string) (*AuthResult, error) {
	if u.google == nil || !u.google.Enabled() {
		return nil, ErrGoogleDisabled
	}

	identity, err := u.google.ValidateIDToken(ctx, idToken)
	if err != nil {
		u.logger.Warn().Err(err).Msg("google id token rejected")
		return nil, ErrInvalidGoogleToken
	}

	email := identifier.NormalizeEmail(identity.Email)

	// Only a primary address is trusted here. A secondary email is never verified, so it
	// must not hand a Google user someone else's account.
	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err == nil {
		return u.createAuthSession(user)
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	// Provisioned without a password; one can be set later through change-password.
	user, err = u.userRepo.CreateUser(ctx, &model.User{Email: email})
	if err != nil {
		return nil, mapDuplicate(err)
	}

	u.logger.Info().Int64("user_id", user.ID).Msg("user provisioned from google sign-in")

	return u.createAuthSession(user)
}

func (u *authUsecase) CurrentUser(ctx context.Context, claims *authtypes.SessionClaims) (*model.User, error) {
	if claims == nil {
		return nil, ErrUserNotFound
	}

	userID, err := token.UserID(claims)
	if err != nil {
		return nil, ErrUserNotFound
	}

	return u.GetProfile(ctx, userID)
}

func (u *authUsecase) ChangePassword(ctx context.Context, userID int64, params ChangePasswordParams) error {
	user, err := u.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	newPassword := strings.TrimSpace(params.NewPassword)

	if user.HasPassword() {
		ok, err := security.VerifyPassword(strings.TrimSpace(params.CurrentPassword), *user.PasswordHash)
		if err != nil {
			return err
		}
		if !ok {
			return ErrIncorrectPassword
		}

		same, err := security.VerifyPassword(newPassword, *user.PasswordHash)
		if err != nil {
			return err
		}
		if same {
			return ErrSamePassword
		}
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if _, err := u.userRepo.UpdateUser(ctx, userID, repository.UpdateUserParams{
		PasswordHash: &passwordHash,
	}); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	return nil
}

func (u *authUsecase) GetProfile(ctx context.Context, userID int64) (*model.User, error) {
	user, err := u.userRepo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

func (u *authUsecase) UpdateProfile(
	ctx context.Context,
	userID int64,
	params UpdateProfileParams,
) (*model.User, error) {
	var update repository.UpdateUserParams

	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if len([]rune(name)) > 80 {
			return nil, ErrNameTooLong
		}
		update.Name = &name
	}

	if params.City != nil {
		city := strings.TrimSpace(*params.City)
		if city != "" {
			canonical, ok := turkish.CanonicalCity(city)
			if !ok {
				return nil, ErrInvalidCity
			}
			city = canonical
		}
		update.City = &city
	}

	if params.Phone != nil {
		phone := strings.TrimSpace(*params.Phone)
		if phone != "" {
			local, ok := identifier.LocalPhone(phone)
			if !ok {
				return nil, ErrInvalidPhone
			}
			phone = local
		}
		update.Phone = &phone
	}

	if params.SecondaryEmail != nil {
		email := identifier.NormalizeEmail(*params.SecondaryEmail)
		update.SecondaryEmail = &email
	}

	if params.AvatarURL != nil {
		avatarURL := strings.TrimSpace(*params.AvatarURL)
		update.AvatarURL = &avatarURL
	}

	if update.SecondaryEmail != nil && *update.SecondaryEmail != "" {
		if err := u.checkSecondaryEmail(ctx, userID, *update.SecondaryEmail); err != nil {
			return nil, err
		}
	}

	if update == (repository.UpdateUserParams{}) {
		return u.GetProfile(ctx, userID)
	}

	user, err := u.userRepo.UpdateUser(ctx, userID, update)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, mapDuplicate(err)
	}

	return user, nil
}

// checkSecondaryEmail rejects an address that already signs in some account, since
// login matches primary and secondary emails alike.
func (u *authUsecase) checkSecondaryEmail(ctx context.Context, userID int64, email string) error {
	owner, err := u.userRepo.FindUserByIdentifier(ctx, identifier.Parse(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}

	switch {
	case owner.ID != userID:
		return ErrSecondaryEmailInUse
	case owner.Email == email:
		return ErrSecondaryEmailIsPrimary
	default:
		return nil
	}
}

func (u *authUsecase) createAuthSession(user *model.User) (*AuthResult, error) {
	tokenStr, err := u.sessionTokens.Issue(*ToSessionUser(user))
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	return &AuthResult{User: user, Token: tokenStr}, nil
}

func mapDuplicate(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrUserAlreadyExists
	case errors.Is(err, repository.ErrDuplicatePhone):
		return ErrPhoneAlreadyExists
	case errors.Is(err, repository.ErrDuplicateSecondaryEmail):
		return ErrSecondaryEmailInUse
	default:
		return err
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
