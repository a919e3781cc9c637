// Package engine implements the job handlers behind the worker loop: lobby
// and game provisioning, round fulfillment, round completion, and membership
// cleanup. Every state transition an engine makes is a conditional
// single-statement update, because job delivery is at-least-once and the same
// check can be in flight twice.
package engine

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/scrawl-party/scrawl/internal/jobs"
)

// RoundPosition locates a round inside its game.
type RoundPosition struct {
	Position int
	GameID   string
}

// GameMembership identifies one game membership a departing lobby member held.
type GameMembership struct {
	GameID   string
	LobbyID  string
	MemberID string
	UserID   string
}

// Records is the relational collaborator the engines drive. Implementations
// must make every TryX operation a conditional update that affects at most
// one row and reports whether it changed anything.
type Records interface {
	// Provisioning.
	CreateLobby(ctx context.Context, creatorID, name string) (string, error)
	CreateGame(ctx context.Context, creatorID, lobbyID, name string) (string, error)

	// Fulfillment.
	CountEntries(ctx context.Context, roundID string) (int64, error)
	CountRoundMembers(ctx context.Context, roundID string) (int64, error)
	TryMarkRoundFulfilled(ctx context.Context, roundID string) (*RoundPosition, error)
	TryStartRound(ctx context.Context, gameID string, position int) (bool, error)

	// Completion.
	CountVotes(ctx context.Context, roundID string) (int64, error)
	TryMarkRoundCompleted(ctx context.Context, roundID string) (bool, error)
	CreateRoundPlacements(ctx context.Context, roundID string) ([]string, error)
	CountOpenRounds(ctx context.Context, gameID string) (int64, error)
	CreateGamePlacements(ctx context.Context, gameID string) ([]string, error)
	TryMarkGameEnded(ctx context.Context, gameID string) (bool, error)

	// Membership cleanup.
	RoundsWithoutEntry(ctx context.Context, userID, gameID string) ([]string, error)
	BackfillEntries(ctx context.Context, userID, memberID string, roundIDs []string) ([]string, error)
	CountActiveLobbyMembers(ctx context.Context, lobbyID string) (int64, error)
	LeaveGameMemberships(ctx context.Context, lobbyMemberID string) ([]GameMembership, error)
	TryCloseLobby(ctx context.Context, lobbyID string) (bool, error)
}

// Queue is the enqueue side of the job store, used for cascading jobs.
type Queue interface {
	Queue(ctx context.Context, job jobs.Job) (string, error)
}

// Engine routes jobs to their handlers.
type Engine struct {
	records Records
	queue   Queue
	log     *logrus.Logger
}

// New builds an Engine over the given collaborators.
func New(records Records, queue Queue, log *logrus.Logger) *Engine {
	return &Engine{records: records, queue: queue, log: log}
}

// Handle dispatches one job by variant and returns it with a populated
// result. Failures never propagate as errors: they are captured inside the
// result so a later lookup can see them, and the worker moves on.
func (e *Engine) Handle(ctx context.Context, job jobs.Job) jobs.Job {
	switch job.Kind {
	case jobs.KindCreateLobby:
		if job.CreateLobby != nil {
			return e.createLobby(ctx, *job.CreateLobby)
		}
	case jobs.KindCreateGame:
		if job.CreateGame != nil {
			return e.createGame(ctx, *job.CreateGame)
		}
	case jobs.KindCheckRoundFulfillment:
		if job.CheckRoundFulfillment != nil {
			return e.checkRoundFulfillment(ctx, *job.CheckRoundFulfillment)
		}
	case jobs.KindCheckRoundCompletion:
		if job.CheckRoundCompletion != nil {
			return e.checkRoundCompletion(ctx, *job.CheckRoundCompletion)
		}
	case jobs.KindCleanupLobbyMembership:
		if job.CleanupLobbyMembership != nil {
			return e.cleanupLobbyMembership(ctx, *job.CleanupLobbyMembership)
		}
	case jobs.KindCleanupGameMembership:
		if job.CleanupGameMembership != nil {
			return e.cleanupGameMembership(ctx, *job.CleanupGameMembership)
		}
	}
	e.log.Warnf("unroutable job kind %q", job.Kind)
	return job
}
