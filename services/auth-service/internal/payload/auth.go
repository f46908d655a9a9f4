package payload

import (
	"strings"
	"time"

	authtypes "github.com/vasapolrittideah/berberpazar/services/auth-service/pkg/types"
)

type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required_without=Email"`
	Email      string `json:"email"`
	Password   string `json:"password"   validate:"required"`
}

// LoginIdentifier returns identifier, falling back to the legacy email field.
func (r LoginRequest) LoginIdentifier() string {
	if r.Identifier != "" {
		return r.Identifier
	}
	return r.Email
}

type UserResponse struct {
	OK   bool                   `json:"ok"`
	User *authtypes.SessionUser `json:"user"`
}

type MeResponse struct {
	User *authtypes.SessionUser `json:"user"`
}

type RegisterRequest struct {
	Email          string `json:"email"          validate:"required,email"`
	Password       string `json:"password"       validate:"required,min=8,max=72"`
	Name           string `json:"name"           validate:"max=80"`
	Phone          string `json:"phone"`
	City           string `json:"city"`
	SecondaryEmail string `json:"secondaryEmail" validate:"isdefault"`
}

func (r *RegisterRequest) Trim() {
	r.Password = strings.TrimSpace(r.Password)
}

type ForgotPasswordRequest struct {
	Identifier string `json:"identifier" validate:"required"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"       validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

func (r *ResetPasswordRequest) Trim() {
	r.Token = strings.TrimSpace(r.Token)
	r.NewPassword = strings.TrimSpace(r.NewPassword)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"     validate:"required,min=8,max=72"`
}

func (r *ChangePasswordRequest) Trim() {
	r.NewPassword = strings.TrimSpace(r.NewPassword)
}

type GoogleLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// UpdateProfileRequest carries a partial profile. Absent fields are left unchanged and
// empty strings clear the stored value.
type UpdateProfileRequest struct {
	Name           *string `json:"name"           validate:"omitempty,max=80"`
	City           *string `json:"city"`
	Phone          *string `json:"phone"`
	SecondaryEmail *string `json:"secondaryEmail" validate:"omitempty,email"`
	AvatarURL      *string `json:"avatarUrl"      validate:"omitempty,url"`
}

type ProfileResponse struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	SecondaryEmail *string   `json:"secondaryEmail"`
	Phone          *string   `json:"phone"`
	Name           *string   `json:"name"`
	City           *string   `json:"city"`
	AvatarURL      *string   `json:"avatarUrl"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	DB string `json:"db"`
}
