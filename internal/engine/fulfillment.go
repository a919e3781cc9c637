package engine

import (
	"context"

	"github.com/scrawl-party/scrawl/internal/jobs"
)

// checkRoundFulfillment decides whether every active game member has an entry
// for the round. The returned count is the number of entries still missing.
func (e *Engine) checkRoundFulfillment(ctx context.Context, details jobs.CheckRoundFulfillment) jobs.Job {
	missing, err := e.fulfillRound(ctx, details.RoundID)
	if err != nil {
		e.log.WithError(err).Warnf("round fulfillment check failed for round %s", details.RoundID)
		details.Result = jobs.ErrCount(err)
	} else {
		details.Result = jobs.OKCount(missing)
	}
	return jobs.Job{Kind: jobs.KindCheckRoundFulfillment, CheckRoundFulfillment: &details}
}

func (e *Engine) fulfillRound(ctx context.Context, roundID string) (int64, error) {
	entries, err := e.records.CountEntries(ctx, roundID)
	if err != nil {
		return 0, err
	}
	members, err := e.records.CountRoundMembers(ctx, roundID)
	if err != nil {
		return 0, err
	}

	diff := members - entries
	if diff != 0 {
		e.log.Debugf("round %s still missing %d entries", roundID, diff)
		return diff, nil
	}

	// Conditional update; affects zero rows when a concurrent check already
	// marked the round fulfilled.
	pos, err := e.records.TryMarkRoundFulfilled(ctx, roundID)
	if err != nil {
		return 0, err
	}
	if pos == nil {
		e.log.Debugf("round %s already fulfilled", roundID)
		return 0, nil
	}

	started, err := e.records.TryStartRound(ctx, pos.GameID, pos.Position+1)
	if err != nil {
		return 0, err
	}
	if started {
		e.log.Infof("round %s fulfilled, started position %d of game %s", roundID, pos.Position+1, pos.GameID)
	} else {
		// Either this was the last round or a redundant run lost the race.
		e.log.Infof("round %s fulfilled, no next round to start in game %s", roundID, pos.GameID)
	}
	return 0, nil
}
