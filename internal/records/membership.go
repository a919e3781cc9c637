package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/scrawl-party/scrawl/internal/engine"
)

// RoundsWithoutEntry lists the rounds of a game that have no entry from the
// given user, in position order.
func (s *Store) RoundsWithoutEntry(ctx context.Context, userID, gameID string) ([]string, error) {
	q := `
	SELECT rounds.id
	  FROM game_rounds AS rounds
	 WHERE rounds.game_id = $1
	   AND NOT EXISTS (
	       SELECT 1 FROM round_entries AS entries
	        WHERE entries.round_id = rounds.id AND entries.user_id = $2
	       )
	 ORDER BY rounds.position
	`
	return s.collectIDs(ctx, q, gameID, userID)
}

// BackfillEntries inserts an empty auto entry for the member in each listed
// round. The (round_id, member_id) uniqueness guard turns re-runs into
// no-ops; only freshly inserted round ids come back.
func (s *Store) BackfillEntries(ctx context.Context, userID, memberID string, roundIDs []string) ([]string, error) {
	q := `
	INSERT INTO round_entries (round_id, game_id, member_id, user_id, content, auto)
	SELECT rounds.id, rounds.game_id, $2, $1, '', TRUE
	  FROM game_rounds AS rounds
	 WHERE rounds.id = ANY($3)
	ON CONFLICT (round_id, member_id) DO NOTHING
	RETURNING round_id
	`
	return s.collectIDs(ctx, q, userID, memberID, roundIDs)
}

// CountActiveLobbyMembers counts members of the lobby that have not left. A
// missing lobby is an error.
func (s *Store) CountActiveLobbyMembers(ctx context.Context, lobbyID string) (int64, error) {
	q := `
	SELECT COUNT(members.id)
	  FROM lobbies
	  LEFT JOIN lobby_members AS members
	    ON members.lobby_id = lobbies.id AND members.left_at IS NULL
	 WHERE lobbies.id = $1
	 GROUP BY lobbies.id
	`
	var count int64
	err := s.pool.QueryRow(ctx, q, lobbyID).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("count members: no lobby %s", lobbyID)
	}
	if err != nil {
		return 0, fmt.Errorf("count members for lobby %s: %w", lobbyID, err)
	}
	return count, nil
}

// LeaveGameMemberships marks every active game membership held through the
// given lobby membership as left and returns what was affected, so the caller
// can cascade per-game cleanup.
func (s *Store) LeaveGameMemberships(ctx context.Context, lobbyMemberID string) ([]engine.GameMembership, error) {
	q := `
	UPDATE game_members
	   SET left_at = NOW()
	 WHERE lobby_member_id = $1 AND left_at IS NULL
	RETURNING game_id, lobby_id, id, user_id
	`
	rows, err := s.pool.Query(ctx, q, lobbyMemberID)
	if err != nil {
		return nil, fmt.Errorf("leave game memberships for lobby member %s: %w", lobbyMemberID, err)
	}
	defer rows.Close()

	var memberships []engine.GameMembership
	for rows.Next() {
		var m engine.GameMembership
		if err := rows.Scan(&m.GameID, &m.LobbyID, &m.MemberID, &m.UserID); err != nil {
			return nil, fmt.Errorf("scan game membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

// TryCloseLobby sets closed_at only if unset.
func (s *Store) TryCloseLobby(ctx context.Context, lobbyID string) (bool, error) {
	q := `UPDATE lobbies SET closed_at = NOW() WHERE id = $1 AND closed_at IS NULL`
	tag, err := s.pool.Exec(ctx, q, lobbyID)
	if err != nil {
		return false, fmt.Errorf("close lobby %s: %w", lobbyID, err)
	}
	return tag.RowsAffected() > 0, nil
}
