// Package models holds the row types shared by the records layer and the
// HTTP handlers.
package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered player account.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Lobby groups players; it can spawn one or more games. ClosedAt is set once,
// by the cleanup engine, when the last member leaves.
type Lobby struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	CreatorID uuid.UUID  `json:"creator_id"`
	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// LobbyMember ties a user to a lobby. Leaving sets LeftAt; rows are never
// deleted.
type LobbyMember struct {
	ID        uuid.UUID  `json:"id"`
	LobbyID   uuid.UUID  `json:"lobby_id"`
	UserID    uuid.UUID  `json:"user_id"`
	InvitedBy *uuid.UUID `json:"invited_by,omitempty"`
	JoinedAt  time.Time  `json:"joined_at"`
	LeftAt    *time.Time `json:"left_at,omitempty"`
}

// Game is one play-through of ordered rounds, owned by a lobby. EndedAt is
// set exactly once, when the last round completes.
type Game struct {
	ID        uuid.UUID  `json:"id"`
	LobbyID   uuid.UUID  `json:"lobby_id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// GameMember ties a lobby member to a game.
type GameMember struct {
	ID            uuid.UUID  `json:"id"`
	GameID        uuid.UUID  `json:"game_id"`
	LobbyID       uuid.UUID  `json:"lobby_id"`
	LobbyMemberID uuid.UUID  `json:"lobby_member_id"`
	UserID        uuid.UUID  `json:"user_id"`
	JoinedAt      time.Time  `json:"joined_at"`
	LeftAt        *time.Time `json:"left_at,omitempty"`
}

// Round is one prompt/entry/vote cycle. Position is 0-based and contiguous
// within a game. Round 0 starts at game creation; round k+1 starts only when
// round k is fulfilled. CompletedAt implies FulfilledAt.
type Round struct {
	ID          uuid.UUID  `json:"id"`
	GameID      uuid.UUID  `json:"game_id"`
	Position    int        `json:"position"`
	Prompt      string     `json:"prompt"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FulfilledAt *time.Time `json:"fulfilled_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Entry is one member's submission for a round. At most one entry exists per
// (round, member) pair; backfilled entries from departed members are empty
// and carry Auto = true.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	RoundID   uuid.UUID `json:"round_id"`
	GameID    uuid.UUID `json:"game_id"`
	MemberID  uuid.UUID `json:"member_id"`
	UserID    uuid.UUID `json:"user_id"`
	Content   string    `json:"content"`
	Auto      bool      `json:"auto"`
	CreatedAt time.Time `json:"created_at"`
}

// Vote is one member's pick of another member's entry within a round. At most
// one vote exists per (round, member), and never for the voter's own entry.
type Vote struct {
	ID        uuid.UUID `json:"id"`
	RoundID   uuid.UUID `json:"round_id"`
	MemberID  uuid.UUID `json:"member_id"`
	UserID    uuid.UUID `json:"user_id"`
	EntryID   uuid.UUID `json:"entry_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PlacementScope distinguishes round placements from whole-game placements.
type PlacementScope string

const (
	PlacementScopeRound PlacementScope = "round"
	PlacementScopeGame  PlacementScope = "game"
)

// Placement is a persisted rank for a user, created exactly once per scope by
// the completion engine and never mutated afterward.
type Placement struct {
	ID        uuid.UUID      `json:"id"`
	Scope     PlacementScope `json:"scope"`
	GameID    uuid.UUID      `json:"game_id"`
	RoundID   *uuid.UUID     `json:"round_id,omitempty"`
	UserID    uuid.UUID      `json:"user_id"`
	Place     int            `json:"place"`
	VoteCount int            `json:"vote_count"`
	CreatedAt time.Time      `json:"created_at"`
}
