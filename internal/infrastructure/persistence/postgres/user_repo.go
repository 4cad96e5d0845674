package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edusignal/dropout-radar/internal/domain/auth"
	"github.com/edusignal/dropout-radar/internal/domain/shared"
)

// UserRepository implements auth.Repository for PostgreSQL.
type UserRepository struct {
	conn *Connection
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

// GetByUsername returns a dashboard user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	query := `
		SELECT username, password_hash, role, COALESCE(mentor_id, '')
		FROM dashboard_users
		WHERE username = $1
	`

	var u auth.User
	var role string
	err := r.conn.QueryRow(ctx, query, username).Scan(&u.Username, &u.PasswordHash, &role, &u.MentorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	u.Role = auth.Role(role)
	return &u, nil
}

// CreateBatch inserts dashboard users.
func (r *UserRepository) CreateBatch(ctx context.Context, users []auth.User) error {
	if len(users) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO dashboard_users (username, password_hash, role, mentor_id)
		VALUES ($1, $2, $3, $4)
	`
	for _, u := range users {
		var mentorID *string
		if u.MentorID != "" {
			mentorID = &u.MentorID
		}
		batch.Queue(query, u.Username, u.PasswordHash, string(u.Role), mentorID)
	}

	results, err := r.conn.SendBatch(ctx, batch)
	if err != nil {
		return fmt.Errorf("failed to insert users: %w", err)
	}
	defer results.Close()
	for range users {
		if _, err := results.Exec(); err != nil {
			if IsUniqueViolation(err) {
				return shared.ErrAlreadyExists
			}
			return fmt.Errorf("failed to insert users: %w", err)
		}
	}
	return nil
}

// DeleteAll removes every dashboard user.
func (r *UserRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.conn.Exec(ctx, "DELETE FROM dashboard_users"); err != nil {
		return fmt.Errorf("failed to delete users: %w", err)
	}
	return nil
}
