package repository

import (
	"context"
	"errors"

	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/model"
	"github.com/vasapolrittideah/berberpazar/shared/identifier"
)

var (
	ErrUserNotFound            = errors.New("user not found")
	ErrDuplicateEmail          = errors.New("email is already registered")
	ErrDuplicateSecondaryEmail = errors.New("secondary email is already in use")
	ErrDuplicatePhone          = errors.New("phone is already in use")
	ErrNoFieldsToUpdate        = errors.New("no user fields to update")
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// FindUserByIdentifier matches an email identifier against the primary and the
	// secondary email, and a phone identifier against the stored local phone.
	FindUserByIdentifier(ctx context.Context, id identifier.Identifier) (*model.User, error)
	UpdateUser(ctx context.Context, id int64, params UpdateUserParams) (*model.User, error)
	Ping(ctx context.Context) error
}

// UpdateUserParams defines the optional parameters for updating a user.
// Only the fields that are not nil will be updated. A pointer to an empty string
// clears the field.
type UpdateUserParams struct {
	SecondaryEmail *string
	Phone          *string
	Name           *string
	City           *string
	AvatarURL      *string
	PasswordHash   *string
}

func (p UpdateUserParams) empty() bool {
	return p.SecondaryEmail == nil &&
		p.Phone == nil &&
		p.Name == nil &&
		p.City == nil &&
		p.AvatarURL == nil &&
		p.PasswordHash == nil
}

// fields lists the non-nil params in a stable order, keyed by storage name.
func (p UpdateUserParams) fields() []updateField {
	candidates := []updateField{
		{name: "secondary_email", value: p.SecondaryEmail},
		{name: "phone", value: p.Phone},
		{name: "name", value: p.Name},
		{name: "city", value: p.City},
		{name: "avatar_url", value: p.AvatarURL},
		{name: "password_hash", value: p.PasswordHash},
	}

	fields := make([]updateField, 0, len(candidates))
	for _, f := range candidates {
		if f.value != nil {
			fields = append(fields, f)
		}
	}

	return fields
}

type updateField struct {
	name  string
	value *string
}

func (f updateField) clears() bool {
	return *f.value == ""
}
