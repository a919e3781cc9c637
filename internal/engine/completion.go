package engine

import (
	"context"

	"github.com/scrawl-party/scrawl/internal/jobs"
)

// checkRoundCompletion decides whether every active member has voted. Once
// all votes are in it closes the round, ranks its entries, and ends the game
// when no open rounds remain.
func (e *Engine) checkRoundCompletion(ctx context.Context, details jobs.CheckRoundCompletion) jobs.Job {
	completion, err := e.completeRound(ctx, details.RoundID, details.GameID)
	if err != nil {
		e.log.WithError(err).Warnf("round completion check failed for round %s", details.RoundID)
		details.Result = jobs.ErrCompletion(err)
	} else {
		details.Result = jobs.OKCompletion(*completion)
	}
	return jobs.Job{Kind: jobs.KindCheckRoundCompletion, CheckRoundCompletion: &details}
}

func (e *Engine) completeRound(ctx context.Context, roundID, gameID string) (*jobs.Completion, error) {
	members, err := e.records.CountRoundMembers(ctx, roundID)
	if err != nil {
		return nil, err
	}
	votes, err := e.records.CountVotes(ctx, roundID)
	if err != nil {
		return nil, err
	}

	if votes != members {
		e.log.Debugf("round %s not complete (%d/%d votes)", roundID, votes, members)
		return &jobs.Completion{State: jobs.CompletionIncomplete}, nil
	}

	closed, err := e.records.TryMarkRoundCompleted(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if !closed {
		e.log.Debugf("round %s already completed", roundID)
	}

	// Placement inserts carry their own uniqueness guards, so a redundant run
	// produces no duplicates and an empty id list.
	roundPlacements, err := e.records.CreateRoundPlacements(ctx, roundID)
	if err != nil {
		return nil, err
	}

	remaining, err := e.records.CountOpenRounds(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if remaining != 0 {
		e.log.Infof("round %s complete, %d rounds remaining in game %s", roundID, remaining, gameID)
		return &jobs.Completion{State: jobs.CompletionIntermediate, PlacementIDs: roundPlacements}, nil
	}

	gamePlacements, err := e.records.CreateGamePlacements(ctx, gameID)
	if err != nil {
		return nil, err
	}
	ended, err := e.records.TryMarkGameEnded(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if ended {
		e.log.Infof("round %s was the last of game %s, game ended", roundID, gameID)
	}
	return &jobs.Completion{State: jobs.CompletionFinal, PlacementIDs: gamePlacements}, nil
}
