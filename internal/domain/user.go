package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	ProfilePicture string    `json:"profile_picture"`
	RefreshToken   string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	// GetUserByLogin matches the identifier against username or email.
	GetUserByLogin(ctx context.Context, login string) (*User, error)
	UpdateRefreshToken(ctx context.Context, id uuid.UUID, token string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateFullName(ctx context.Context, id uuid.UUID, fullName string) error
	UpdateProfilePicture(ctx context.Context, id uuid.UUID, profilePicture string) error
}
