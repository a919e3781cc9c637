package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrAlreadySubmitted is returned when a member already has an entry or vote
// for the round.
var ErrAlreadySubmitted = errors.New("records: already submitted for this round")

// uniqueViolation is the Postgres error code for unique constraint breaches.
const uniqueViolation = "23505"

// CreateEntry records a member's submission for a round that is started but
// not yet fulfilled. ErrNotFound when the round is not open for entries or
// the user is not an active member of its game.
func (s *Store) CreateEntry(ctx context.Context, roundID, userID uuid.UUID, content string) (uuid.UUID, error) {
	q := `
	INSERT INTO round_entries (round_id, game_id, member_id, user_id, content)
	SELECT rounds.id, rounds.game_id, members.id, members.user_id, $3
	  FROM game_rounds AS rounds
	  JOIN game_members AS members
	    ON members.game_id = rounds.game_id AND members.left_at IS NULL
	 WHERE rounds.id = $1 AND members.user_id = $2
	   AND rounds.started_at IS NOT NULL AND rounds.fulfilled_at IS NULL
	RETURNING id
	`
	var entryID uuid.UUID
	err := s.pool.QueryRow(ctx, q, roundID, userID, content).Scan(&entryID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrNotFound
	}
	if isUniqueViolation(err) {
		return uuid.Nil, ErrAlreadySubmitted
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("create entry for round %s: %w", roundID, err)
	}
	return entryID, nil
}

// CreateVote records a member's vote for another member's entry in a round
// that is fulfilled but not yet completed. Voting for one's own entry, an
// entry from another round, or in a round not open for voting all yield
// ErrNotFound.
func (s *Store) CreateVote(ctx context.Context, roundID, userID, entryID uuid.UUID) (uuid.UUID, error) {
	q := `
	INSERT INTO round_votes (round_id, member_id, user_id, entry_id)
	SELECT rounds.id, members.id, members.user_id, entries.id
	  FROM game_rounds AS rounds
	  JOIN game_members AS members
	    ON members.game_id = rounds.game_id AND members.left_at IS NULL
	  JOIN round_entries AS entries
	    ON entries.id = $3 AND entries.round_id = rounds.id
	 WHERE rounds.id = $1 AND members.user_id = $2
	   AND rounds.fulfilled_at IS NOT NULL AND rounds.completed_at IS NULL
	   AND entries.member_id <> members.id
	RETURNING id
	`
	var voteID uuid.UUID
	err := s.pool.QueryRow(ctx, q, roundID, userID, entryID).Scan(&voteID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrNotFound
	}
	if isUniqueViolation(err) {
		return uuid.Nil, ErrAlreadySubmitted
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("create vote for round %s: %w", roundID, err)
	}
	return voteID, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
