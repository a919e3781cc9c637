package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scrawl-party/scrawl/internal/models"
)

// RoundsPerGame is how many prompt rounds a new game gets.
const RoundsPerGame = 3

// CreateGame provisions a game inside an open lobby: the game row, its prompt
// rounds with round 0 already started, and a game membership for every active
// lobby member. All in one transaction.
func (s *Store) CreateGame(ctx context.Context, creatorID, lobbyID, name string) (string, error) {
	var gameID string
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
		INSERT INTO games (lobby_id, name)
		SELECT lobbies.id, $2
		  FROM lobbies
		 WHERE lobbies.id = $1 AND lobbies.closed_at IS NULL
		RETURNING id
		`
		if err := tx.QueryRow(ctx, q, lobbyID, name).Scan(&gameID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("no open lobby %s", lobbyID)
			}
			return err
		}

		prompts, err := pickPrompts(ctx, tx, RoundsPerGame)
		if err != nil {
			return err
		}
		for position, prompt := range prompts {
			r := `
			INSERT INTO game_rounds (game_id, position, prompt, started_at)
			VALUES ($1, $2, $3, CASE WHEN $2 = 0 THEN NOW() END)
			`
			if _, err := tx.Exec(ctx, r, gameID, position, prompt); err != nil {
				return err
			}
		}

		m := `
		INSERT INTO game_members (game_id, lobby_id, lobby_member_id, user_id)
		SELECT $1, members.lobby_id, members.id, members.user_id
		  FROM lobby_members AS members
		 WHERE members.lobby_id = $2 AND members.left_at IS NULL
		`
		_, err = tx.Exec(ctx, m, gameID, lobbyID)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("create game in lobby %s for user %s: %w", lobbyID, creatorID, err)
	}
	return gameID, nil
}

func pickPrompts(ctx context.Context, tx pgx.Tx, n int) ([]string, error) {
	rows, err := tx.Query(ctx, `SELECT text FROM prompts ORDER BY random() LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("pick prompts: %w", err)
	}
	defer rows.Close()

	var prompts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, err
		}
		prompts = append(prompts, text)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Short prompt seed data should not block game creation.
	for len(prompts) < n {
		prompts = append(prompts, "Write something nobody expects.")
	}
	return prompts, nil
}

// GetGame fetches a game by id.
func (s *Store) GetGame(ctx context.Context, gameID uuid.UUID) (*models.Game, error) {
	q := `
	SELECT id, lobby_id, name, created_at, ended_at
	  FROM games
	 WHERE id = $1
	`
	var g models.Game
	err := s.pool.QueryRow(ctx, q, gameID).Scan(&g.ID, &g.LobbyID, &g.Name, &g.CreatedAt, &g.EndedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get game %s: %w", gameID, err)
	}
	return &g, nil
}

// ListRounds returns a game's rounds in position order.
func (s *Store) ListRounds(ctx context.Context, gameID uuid.UUID) ([]models.Round, error) {
	q := `
	SELECT id, game_id, position, prompt, created_at, started_at, fulfilled_at, completed_at
	  FROM game_rounds
	 WHERE game_id = $1
	 ORDER BY position
	`
	rows, err := s.pool.Query(ctx, q, gameID)
	if err != nil {
		return nil, fmt.Errorf("list rounds for game %s: %w", gameID, err)
	}
	defer rows.Close()

	var rounds []models.Round
	for rows.Next() {
		var r models.Round
		if err := rows.Scan(&r.ID, &r.GameID, &r.Position, &r.Prompt, &r.CreatedAt, &r.StartedAt, &r.FulfilledAt, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		rounds = append(rounds, r)
	}
	return rounds, rows.Err()
}

// GetRound fetches a round by id.
func (s *Store) GetRound(ctx context.Context, roundID uuid.UUID) (*models.Round, error) {
	q := `
	SELECT id, game_id, position, prompt, created_at, started_at, fulfilled_at, completed_at
	  FROM game_rounds
	 WHERE id = $1
	`
	var r models.Round
	err := s.pool.QueryRow(ctx, q, roundID).Scan(&r.ID, &r.GameID, &r.Position, &r.Prompt, &r.CreatedAt, &r.StartedAt, &r.FulfilledAt, &r.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get round %s: %w", roundID, err)
	}
	return &r, nil
}

// ListRoundPlacements returns a round's placements in rank order; empty until
// the round completes.
func (s *Store) ListRoundPlacements(ctx context.Context, roundID uuid.UUID) ([]models.Placement, error) {
	q := `
	SELECT id, game_id, round_id, user_id, place, vote_count, created_at
	  FROM round_placements
	 WHERE round_id = $1
	 ORDER BY place
	`
	rows, err := s.pool.Query(ctx, q, roundID)
	if err != nil {
		return nil, fmt.Errorf("list placements for round %s: %w", roundID, err)
	}
	defer rows.Close()

	var placements []models.Placement
	for rows.Next() {
		p := models.Placement{Scope: models.PlacementScopeRound}
		if err := rows.Scan(&p.ID, &p.GameID, &p.RoundID, &p.UserID, &p.Place, &p.VoteCount, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan placement: %w", err)
		}
		placements = append(placements, p)
	}
	return placements, rows.Err()
}

// ListGamePlacements returns a game's final placements in rank order; empty
// until the game ends.
func (s *Store) ListGamePlacements(ctx context.Context, gameID uuid.UUID) ([]models.Placement, error) {
	q := `
	SELECT id, game_id, user_id, place, vote_count, created_at
	  FROM game_placements
	 WHERE game_id = $1
	 ORDER BY place
	`
	rows, err := s.pool.Query(ctx, q, gameID)
	if err != nil {
		return nil, fmt.Errorf("list placements for game %s: %w", gameID, err)
	}
	defer rows.Close()

	var placements []models.Placement
	for rows.Next() {
		p := models.Placement{Scope: models.PlacementScopeGame}
		if err := rows.Scan(&p.ID, &p.GameID, &p.UserID, &p.Place, &p.VoteCount, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan placement: %w", err)
		}
		placements = append(placements, p)
	}
	return placements, rows.Err()
}
