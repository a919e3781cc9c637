package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/scrawl-party/scrawl/internal/engine"
)

// CountEntries counts the entries submitted (or backfilled) for a round. A
// missing round is an error, not a zero.
func (s *Store) CountEntries(ctx context.Context, roundID string) (int64, error) {
	q := `
	SELECT COUNT(entries.id)
	  FROM game_rounds AS rounds
	  LEFT JOIN round_entries AS entries ON entries.round_id = rounds.id
	 WHERE rounds.id = $1
	 GROUP BY rounds.id
	`
	var count int64
	err := s.pool.QueryRow(ctx, q, roundID).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("count entries: no round %s", roundID)
	}
	if err != nil {
		return 0, fmt.Errorf("count entries for round %s: %w", roundID, err)
	}
	return count, nil
}

// CountRoundMembers counts the active members of the round's game.
func (s *Store) CountRoundMembers(ctx context.Context, roundID string) (int64, error) {
	q := `
	SELECT COUNT(members.id)
	  FROM game_rounds AS rounds
	  LEFT JOIN game_members AS members
	    ON members.game_id = rounds.game_id AND members.left_at IS NULL
	 WHERE rounds.id = $1
	 GROUP BY rounds.id
	`
	var count int64
	err := s.pool.QueryRow(ctx, q, roundID).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("count members: no round %s", roundID)
	}
	if err != nil {
		return 0, fmt.Errorf("count members for round %s: %w", roundID, err)
	}
	return count, nil
}

// CountVotes counts the votes cast in a round.
func (s *Store) CountVotes(ctx context.Context, roundID string) (int64, error) {
	q := `
	SELECT COUNT(votes.id)
	  FROM game_rounds AS rounds
	  LEFT JOIN round_votes AS votes ON votes.round_id = rounds.id
	 WHERE rounds.id = $1
	 GROUP BY rounds.id
	`
	var count int64
	err := s.pool.QueryRow(ctx, q, roundID).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("count votes: no round %s", roundID)
	}
	if err != nil {
		return 0, fmt.Errorf("count votes for round %s: %w", roundID, err)
	}
	return count, nil
}

// TryMarkRoundFulfilled sets fulfilled_at only if it is unset, returning the
// round's position and game. A nil result means another check got there
// first; the caller must treat that as already done.
func (s *Store) TryMarkRoundFulfilled(ctx context.Context, roundID string) (*engine.RoundPosition, error) {
	q := `
	UPDATE game_rounds
	   SET fulfilled_at = NOW()
	 WHERE id = $1 AND fulfilled_at IS NULL
	RETURNING position, game_id
	`
	var pos engine.RoundPosition
	err := s.pool.QueryRow(ctx, q, roundID).Scan(&pos.Position, &pos.GameID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mark round %s fulfilled: %w", roundID, err)
	}
	return &pos, nil
}

// TryStartRound sets started_at on the round at the given position, only if
// unset. Reports whether a row changed; false covers both "no such position"
// (the game's last round was just fulfilled) and "already started".
func (s *Store) TryStartRound(ctx context.Context, gameID string, position int) (bool, error) {
	q := `
	UPDATE game_rounds
	   SET started_at = NOW()
	 WHERE game_id = $1 AND position = $2 AND started_at IS NULL
	`
	tag, err := s.pool.Exec(ctx, q, gameID, position)
	if err != nil {
		return false, fmt.Errorf("start round %d of game %s: %w", position, gameID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// TryMarkRoundCompleted sets completed_at only if unset.
func (s *Store) TryMarkRoundCompleted(ctx context.Context, roundID string) (bool, error) {
	q := `
	UPDATE game_rounds
	   SET completed_at = NOW()
	 WHERE id = $1 AND completed_at IS NULL
	`
	tag, err := s.pool.Exec(ctx, q, roundID)
	if err != nil {
		return false, fmt.Errorf("mark round %s completed: %w", roundID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// CreateRoundPlacements ranks a round's entries by received vote count,
// breaking ties by entry creation order, and persists one placement per
// entry. The (round_id, member_id) uniqueness guard makes redundant runs
// insert nothing and return an empty id list.
func (s *Store) CreateRoundPlacements(ctx context.Context, roundID string) ([]string, error) {
	q := `
	INSERT INTO round_placements (round_id, game_id, member_id, user_id, place, vote_count)
	SELECT ranked.round_id, ranked.game_id, ranked.member_id, ranked.user_id,
	       ROW_NUMBER() OVER (ORDER BY ranked.vote_count DESC, ranked.created_at ASC),
	       ranked.vote_count
	  FROM (
	       SELECT entries.id, entries.round_id, entries.game_id, entries.member_id,
	              entries.user_id, entries.created_at,
	              COUNT(votes.id) AS vote_count
	         FROM round_entries AS entries
	         LEFT JOIN round_votes AS votes ON votes.entry_id = entries.id
	        WHERE entries.round_id = $1
	        GROUP BY entries.id
	       ) AS ranked
	ON CONFLICT (round_id, member_id) DO NOTHING
	RETURNING id
	`
	return s.collectIDs(ctx, q, roundID)
}

// CountOpenRounds counts the game's rounds not yet completed.
func (s *Store) CountOpenRounds(ctx context.Context, gameID string) (int64, error) {
	q := `SELECT COUNT(id) FROM game_rounds WHERE game_id = $1 AND completed_at IS NULL`
	var count int64
	if err := s.pool.QueryRow(ctx, q, gameID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count open rounds for game %s: %w", gameID, err)
	}
	return count, nil
}

// CreateGamePlacements aggregates each member's round vote totals into one
// game placement per member, ranked by total votes with join order as the
// tie-break. Uniqueness-guarded like round placements.
func (s *Store) CreateGamePlacements(ctx context.Context, gameID string) ([]string, error) {
	q := `
	INSERT INTO game_placements (game_id, member_id, user_id, place, vote_count)
	SELECT totals.game_id, totals.member_id, totals.user_id,
	       ROW_NUMBER() OVER (ORDER BY totals.vote_count DESC, totals.joined_at ASC),
	       totals.vote_count
	  FROM (
	       SELECT members.game_id, members.id AS member_id, members.user_id,
	              members.joined_at,
	              COALESCE(SUM(placements.vote_count), 0) AS vote_count
	         FROM game_members AS members
	         LEFT JOIN round_placements AS placements ON placements.member_id = members.id
	        WHERE members.game_id = $1
	        GROUP BY members.game_id, members.id, members.user_id, members.joined_at
	       ) AS totals
	ON CONFLICT (game_id, member_id) DO NOTHING
	RETURNING id
	`
	return s.collectIDs(ctx, q, gameID)
}

// TryMarkGameEnded sets ended_at only if unset.
func (s *Store) TryMarkGameEnded(ctx context.Context, gameID string) (bool, error) {
	q := `UPDATE games SET ended_at = NOW() WHERE id = $1 AND ended_at IS NULL`
	tag, err := s.pool.Exec(ctx, q, gameID)
	if err != nil {
		return false, fmt.Errorf("mark game %s ended: %w", gameID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) collectIDs(ctx context.Context, q string, args ...interface{}) ([]string, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("collect ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
