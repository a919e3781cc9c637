package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scrawl-party/scrawl/internal/models"
)

// CreateLobby inserts a lobby and its creator's membership in one
// transaction, returning the lobby id.
func (s *Store) CreateLobby(ctx context.Context, creatorID, name string) (string, error) {
	var lobbyID string
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
		INSERT INTO lobbies (name, creator_id)
		VALUES ($1, $2)
		RETURNING id
		`
		if err := tx.QueryRow(ctx, q, name, creatorID).Scan(&lobbyID); err != nil {
			return err
		}
		m := `INSERT INTO lobby_members (lobby_id, user_id) VALUES ($1, $2)`
		_, err := tx.Exec(ctx, m, lobbyID, creatorID)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("create lobby for user %s: %w", creatorID, err)
	}
	return lobbyID, nil
}

// GetLobby fetches a lobby by id.
func (s *Store) GetLobby(ctx context.Context, lobbyID uuid.UUID) (*models.Lobby, error) {
	q := `
	SELECT id, name, creator_id, created_at, closed_at
	  FROM lobbies
	 WHERE id = $1
	`
	var l models.Lobby
	err := s.pool.QueryRow(ctx, q, lobbyID).Scan(&l.ID, &l.Name, &l.CreatorID, &l.CreatedAt, &l.ClosedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get lobby %s: %w", lobbyID, err)
	}
	return &l, nil
}

// JoinLobby adds a user to an open lobby and returns the membership id.
// Joining a closed or unknown lobby yields ErrNotFound.
func (s *Store) JoinLobby(ctx context.Context, lobbyID, userID uuid.UUID, invitedBy *uuid.UUID) (uuid.UUID, error) {
	q := `
	INSERT INTO lobby_members (lobby_id, user_id, invited_by)
	SELECT lobbies.id, $2, $3
	  FROM lobbies
	 WHERE lobbies.id = $1 AND lobbies.closed_at IS NULL
	RETURNING id
	`
	var memberID uuid.UUID
	err := s.pool.QueryRow(ctx, q, lobbyID, userID, invitedBy).Scan(&memberID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("join lobby %s: %w", lobbyID, err)
	}
	return memberID, nil
}

// LeaveLobby marks the user's active membership as left and returns the
// membership id, which the caller hands to the cleanup job. ErrNotFound when
// the user holds no active membership.
func (s *Store) LeaveLobby(ctx context.Context, lobbyID, userID uuid.UUID) (uuid.UUID, error) {
	q := `
	UPDATE lobby_members
	   SET left_at = NOW()
	 WHERE lobby_id = $1 AND user_id = $2 AND left_at IS NULL
	RETURNING id
	`
	var memberID uuid.UUID
	err := s.pool.QueryRow(ctx, q, lobbyID, userID).Scan(&memberID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("leave lobby %s: %w", lobbyID, err)
	}
	return memberID, nil
}
