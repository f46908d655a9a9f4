package model

import (
	"time"
)

// User represents a user in the authentication system.
type User struct {
	ID             int64     `bson:"_id"`
	Email          string    `bson:"email"`
	SecondaryEmail *string   `bson:"secondary_email,omitempty"`
	Phone          *string   `bson:"phone,omitempty"`
	Name           *string   `bson:"name,omitempty"`
	City           *string   `bson:"city,omitempty"`
	AvatarURL      *string   `bson:"avatar_url,omitempty"`
	PasswordHash   *string   `bson:"password_hash,omitempty"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

// HasPassword reports whether password based login is possible for the user.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
