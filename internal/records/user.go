package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scrawl-party/scrawl/internal/models"
)

// ErrEmailTaken is returned when an account already exists for the email.
var ErrEmailTaken = errors.New("records: email already registered")

// CreateUser inserts a user row and fills in the generated id and timestamp.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	q := `
	INSERT INTO users (email, name, password_hash)
	VALUES ($1, $2, $3)
	RETURNING id, created_at
	`
	err := s.pool.QueryRow(ctx, q, u.Email, u.Name, u.PasswordHash).Scan(&u.ID, &u.CreatedAt)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("create user %s: %w", u.Email, err)
	}
	return nil
}

// FindUserByEmail fetches a user for login.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	q := `
	SELECT id, email, name, password_hash, created_at
	  FROM users
	 WHERE email = $1
	`
	var u models.User
	err := s.pool.QueryRow(ctx, q, email).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &u, nil
}

// GetUserByID fetches a user by id.
func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	q := `
	SELECT id, email, name, password_hash, created_at
	  FROM users
	 WHERE id = $1
	`
	var u models.User
	err := s.pool.QueryRow(ctx, q, id).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &u, nil
}
