package model

import (
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID              string  `json:"id"`
	Email           string  `json:"email"`
	HashedPassword  string  `json:"-"` // Not exposed
	FirstName       *string `json:"firstName,omitempty"`
	LastName        *string `json:"lastName,omitempty"`
	Role            Role    `json:"role"`
	IsEmailVerified bool    `json:"isEmailVerified"`
	// SHA-256 digest of the emailed verification token; cleared once verified.
	VerificationToken *string `json:"-"`
	// bcrypt hash of the current refresh token; nil when logged out.
	RefreshToken *string   `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserProfile is the redacted view of a User returned over the API.
type UserProfile struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	FirstName       *string   `json:"firstName,omitempty"`
	LastName        *string   `json:"lastName,omitempty"`
	Role            Role      `json:"role"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (u *User) Profile() *UserProfile {
	return &UserProfile{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Role:            u.Role,
		IsEmailVerified: u.IsEmailVerified,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}
