package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrawl-party/scrawl/internal/jobs"
)

func gameCleanupJob() jobs.Job {
	return jobs.Job{
		Kind: jobs.KindCleanupGameMembership,
		CleanupGameMembership: &jobs.CleanupGameMembership{
			UserID:   "user-1",
			MemberID: "member-1",
			LobbyID:  "lobby-1",
			GameID:   "game-1",
		},
	}
}

func lobbyCleanupJob() jobs.Job {
	return jobs.Job{
		Kind: jobs.KindCleanupLobbyMembership,
		CleanupLobbyMembership: &jobs.CleanupLobbyMembership{
			MemberID: "member-1",
			LobbyID:  "lobby-1",
		},
	}
}

func TestGameCleanupBackfillsMissingRounds(t *testing.T) {
	records := newFakeRecords()
	records.addGame("game-1", []string{"round-a", "round-b", "round-c"}, 3)
	records.noEntry["user-1|game-1"] = []string{"round-a", "round-b", "round-c"}

	queue := &fakeJobQueue{}
	engine := New(records, queue, testLogger())
	out := engine.Handle(context.Background(), gameCleanupJob())

	require.NotNil(t, out.CleanupGameMembership)
	result := out.CleanupGameMembership.Result
	require.NotNil(t, result)
	require.NotNil(t, result.OK)
	assert.ElementsMatch(t, []string{"round-a", "round-b", "round-c"}, *result.OK)

	// One fulfillment check per backfilled round.
	require.Len(t, queue.queued, 3)
	var checked []string
	for _, job := range queue.queued {
		require.Equal(t, jobs.KindCheckRoundFulfillment, job.Kind)
		require.NotNil(t, job.CheckRoundFulfillment)
		checked = append(checked, job.CheckRoundFulfillment.RoundID)
	}
	assert.ElementsMatch(t, []string{"round-a", "round-b", "round-c"}, checked)
}

func TestGameCleanupNothingOutstanding(t *testing.T) {
	records := newFakeRecords()
	records.addGame("game-1", []string{"round-a"}, 3)

	queue := &fakeJobQueue{}
	engine := New(records, queue, testLogger())
	out := engine.Handle(context.Background(), gameCleanupJob())

	result := out.CleanupGameMembership.Result
	require.NotNil(t, result)
	require.NotNil(t, result.OK)
	assert.Empty(t, *result.OK)
	assert.Nil(t, result.Err)
	assert.Empty(t, queue.queued)
}

func TestGameCleanupRedundantRunBackfillsNothing(t *testing.T) {
	records := newFakeRecords()
	records.addGame("game-1", []string{"round-a", "round-b"}, 3)
	records.noEntry["user-1|game-1"] = []string{"round-a", "round-b"}

	queue := &fakeJobQueue{}
	engine := New(records, queue, testLogger())
	engine.Handle(context.Background(), gameCleanupJob())
	require.Len(t, queue.queued, 2)

	out := engine.Handle(context.Background(), gameCleanupJob())

	result := out.CleanupGameMembership.Result
	require.NotNil(t, result)
	require.NotNil(t, result.OK)
	assert.Empty(t, *result.OK)
	assert.Len(t, queue.queued, 2, "no extra fulfillment checks queued")
}

func TestGameCleanupQueueFailure(t *testing.T) {
	records := newFakeRecords()
	records.addGame("game-1", []string{"round-a"}, 3)
	records.noEntry["user-1|game-1"] = []string{"round-a"}

	queue := &fakeJobQueue{err: errors.New("redis down")}
	engine := New(records, queue, testLogger())
	out := engine.Handle(context.Background(), gameCleanupJob())

	result := out.CleanupGameMembership.Result
	require.NotNil(t, result.Err)
	assert.Equal(t, "redis down", *result.Err)
}

func TestLobbyCleanupCascadesGameMemberships(t *testing.T) {
	records := newFakeRecords()
	records.lobbies["lobby-1"] = &fakeLobby{ActiveMembers: 2}
	records.memberships["member-1"] = []GameMembership{
		{GameID: "game-1", LobbyID: "lobby-1", MemberID: "gm-1", UserID: "user-1"},
		{GameID: "game-2", LobbyID: "lobby-1", MemberID: "gm-2", UserID: "user-1"},
	}

	queue := &fakeJobQueue{}
	engine := New(records, queue, testLogger())
	out := engine.Handle(context.Background(), lobbyCleanupJob())

	require.NotNil(t, out.CleanupLobbyMembership)
	result := out.CleanupLobbyMembership.Result
	require.NotNil(t, result)
	require.NotNil(t, result.OK)
	assert.Equal(t, "done", *result.OK)
	assert.Nil(t, records.lobbies["lobby-1"].ClosedAt)

	require.Len(t, queue.queued, 2)
	for _, job := range queue.queued {
		require.Equal(t, jobs.KindCleanupGameMembership, job.Kind)
		require.NotNil(t, job.CleanupGameMembership)
		assert.Equal(t, "user-1", job.CleanupGameMembership.UserID)
	}
	assert.Equal(t, "gm-1", queue.queued[0].CleanupGameMembership.MemberID)
	assert.Equal(t, "game-2", queue.queued[1].CleanupGameMembership.GameID)
}

func TestLobbyCleanupClosesEmptyLobby(t *testing.T) {
	records := newFakeRecords()
	records.lobbies["lobby-1"] = &fakeLobby{ActiveMembers: 0}

	engine := New(records, &fakeJobQueue{}, testLogger())
	out := engine.Handle(context.Background(), lobbyCleanupJob())

	result := out.CleanupLobbyMembership.Result
	require.NotNil(t, result.OK)
	assert.Equal(t, "closed", *result.OK)
	assert.NotNil(t, records.lobbies["lobby-1"].ClosedAt)
}

func TestLobbyCleanupRedundantCloseLeavesTimestamp(t *testing.T) {
	records := newFakeRecords()
	records.lobbies["lobby-1"] = &fakeLobby{ActiveMembers: 0}

	engine := New(records, &fakeJobQueue{}, testLogger())
	engine.Handle(context.Background(), lobbyCleanupJob())
	closedAt := *records.lobbies["lobby-1"].ClosedAt

	out := engine.Handle(context.Background(), lobbyCleanupJob())

	result := out.CleanupLobbyMembership.Result
	require.NotNil(t, result.OK)
	assert.Equal(t, "closed", *result.OK)
	assert.Equal(t, closedAt, *records.lobbies["lobby-1"].ClosedAt)
}

func TestLobbyCleanupUnknownLobbyFails(t *testing.T) {
	records := newFakeRecords()

	engine := New(records, &fakeJobQueue{}, testLogger())
	out := engine.Handle(context.Background(), lobbyCleanupJob())

	result := out.CleanupLobbyMembership.Result
	assert.Nil(t, result.OK)
	require.NotNil(t, result.Err)
	assert.Contains(t, *result.Err, "lobby-1")
}
