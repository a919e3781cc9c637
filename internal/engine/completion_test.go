package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrawl-party/scrawl/internal/jobs"
)

func completionJob(roundID, gameID string) jobs.Job {
	return jobs.Job{
		Kind:                 jobs.KindCheckRoundCompletion,
		CheckRoundCompletion: &jobs.CheckRoundCompletion{RoundID: roundID, GameID: gameID},
	}
}

func completionResult(t *testing.T, out jobs.Job) *jobs.Completion {
	t.Helper()
	require.NotNil(t, out.CheckRoundCompletion)
	result := out.CheckRoundCompletion.Result
	require.NotNil(t, result)
	require.NotNil(t, result.OK, "expected an ok result, got err %v", result.Err)
	return result.OK
}

func TestCompletionIncompleteWithMissingVotes(t *testing.T) {
	records := newFakeRecords()
	records.addGame("game-1", []string{"round-a", "round-b"}, 3)
	records.rounds["round-a"].Votes = 2

	engine := New(records, &fakeJobQueue{}, testLogger())
	out := engine.Handle(context.Background(), completionJob("round-a", "game-1"))

	completion := completionResult(t, out)
	assert.Equal(t, jobs.CompletionIncomplete, completion.State)
	assert.Empty(t, completion.PlacementIDs)
	assert.Nil(t, records.rounds["round-a"].CompletedAt)
}

func TestCompletionIntermediateClosesRound(t *testing.T) {
	records := newFakeRecords()
	records.addGame("game-1", []string{"round-a", "round-b"}, 3)
	records.rounds["round-a"].Entries = 3
	records.rounds["round-a"].Votes = 3

	engine := New(records, &fakeJobQueue{}, testLogger())
	out := engine.Handle(context.Background(), completionJob("round-a", "game-1"))

	completion := completionResult(t, out)
	assert.Equal(t, jobs.CompletionIntermediate, completion.State)
	assert.Len(t, completion.PlacementIDs, 3)
	assert.NotNil(t, records.rounds["round-a"].CompletedAt)
	assert.Nil(t, records.games["game-1"].EndedAt)
}

func TestCompletionFinalEndsGame(t *testing.T) {
	records := newFakeRecords()
	records.addGame("game-1", []string{"round-a", "round-b"}, 2)
	done := time.Now()
	records.rounds["round-a"].CompletedAt = &done
	records.rounds["round-b"].Entries = 2
	records.rounds["round-b"].Votes = 2

	engine := New(records, &fakeJobQueue{}, testLogger())
	out := engine.Handle(context.Background(), completionJob("round-b", "game-1"))

	completion := completionResult(t, out)
	assert.Equal(t, jobs.CompletionFinal, completion.State)
	assert.Len(t, completion.PlacementIDs, 2)
	assert.NotNil(t, records.rounds["round-b"].CompletedAt)
	assert.NotNil(t, records.games["game-1"].EndedAt)
}

func TestCompletionRedundantRunLeavesGameEnd(t *testing.T) {
	records := newFakeRecords()
	records.addGame("game-1", []string{"round-a"}, 2)
	records.rounds["round-a"].Entries = 2
	records.rounds["round-a"].Votes = 2

	engine := New(records, &fakeJobQueue{}, testLogger())
	engine.Handle(context.Background(), completionJob("round-a", "game-1"))

	completedAt := *records.rounds["round-a"].CompletedAt
	endedAt := *records.games["game-1"].EndedAt

	out := engine.Handle(context.Background(), completionJob("round-a", "game-1"))

	// Placement inserts hit their uniqueness guards the second time around.
	completion := completionResult(t, out)
	assert.Equal(t, jobs.CompletionFinal, completion.State)
	assert.Empty(t, completion.PlacementIDs)
	assert.Equal(t, completedAt, *records.rounds["round-a"].CompletedAt)
	assert.Equal(t, endedAt, *records.games["game-1"].EndedAt)
}

func TestCompletionRecordsErrorLandsInResult(t *testing.T) {
	records := newFakeRecords()
	records.addGame("game-1", []string{"round-a"}, 2)
	records.rounds["round-a"].Votes = 2
	records.errs["TryMarkRoundCompleted"] = errors.New("connection reset")

	engine := New(records, &fakeJobQueue{}, testLogger())
	out := engine.Handle(context.Background(), completionJob("round-a", "game-1"))

	result := out.CheckRoundCompletion.Result
	require.NotNil(t, result)
	assert.Nil(t, result.OK)
	require.NotNil(t, result.Err)
	assert.Equal(t, "connection reset", *result.Err)
}
