// Package auth contains the dashboard user model. The dashboard is consumed
// by mentors and admins only; credential verification lives here, while
// session mechanics stay with the HTTP layer's callers.
package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/edusignal/dropout-radar/internal/domain/shared"
)

// Role of a dashboard user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMentor Role = "mentor"
)

// User is one dashboard login.
type User struct {
	Username     string
	PasswordHash string
	Role         Role

	// MentorID links mentor users to their roster assignments; empty for admins.
	MentorID string
}

// Repository provides access to dashboard users.
type Repository interface {
	// GetByUsername returns a user, or shared.ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// CreateBatch inserts users (used by sample data seeding).
	CreateBatch(ctx context.Context, users []User) error

	// DeleteAll removes every user (used by sample data seeding).
	DeleteAll(ctx context.Context) error
}

// HashPassword returns a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword checks a password against the user's stored hash.
// Returns shared.ErrUnauthorized on mismatch.
func (u *User) VerifyPassword(password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return shared.ErrUnauthorized
	}
	return nil
}
