package engine

import (
	"context"

	"github.com/scrawl-party/scrawl/internal/jobs"
)

// cleanupGameMembership backfills an empty entry for every round of the game
// the departed member never answered, then enqueues a fulfillment check per
// backfilled round. Without the backfill a departure could block fulfillment
// forever.
func (e *Engine) cleanupGameMembership(ctx context.Context, details jobs.CleanupGameMembership) jobs.Job {
	backfilled, err := e.backfillDepartedMember(ctx, details)
	if err != nil {
		e.log.WithError(err).Warnf("game membership cleanup failed for member %s", details.MemberID)
		details.Result = jobs.ErrIDSet(err)
	} else {
		details.Result = jobs.OKIDSet(backfilled)
	}
	return jobs.Job{Kind: jobs.KindCleanupGameMembership, CleanupGameMembership: &details}
}

func (e *Engine) backfillDepartedMember(ctx context.Context, details jobs.CleanupGameMembership) ([]string, error) {
	roundIDs, err := e.records.RoundsWithoutEntry(ctx, details.UserID, details.GameID)
	if err != nil {
		return nil, err
	}
	if len(roundIDs) == 0 {
		e.log.Infof("member %s left game %s with no outstanding entries", details.MemberID, details.GameID)
		return []string{}, nil
	}

	// The unique (round, member) constraint makes a redundant backfill a
	// no-op, so only freshly inserted rounds come back.
	backfilled, err := e.records.BackfillEntries(ctx, details.UserID, details.MemberID, dedupe(roundIDs))
	if err != nil {
		return nil, err
	}

	for _, roundID := range backfilled {
		job := jobs.Job{
			Kind:                  jobs.KindCheckRoundFulfillment,
			CheckRoundFulfillment: &jobs.CheckRoundFulfillment{RoundID: roundID},
		}
		if _, err := e.queue.Queue(ctx, job); err != nil {
			return nil, err
		}
		e.log.Debugf("queued fulfillment check for backfilled round %s", roundID)
	}
	return backfilled, nil
}

// cleanupLobbyMembership cascades game-membership cleanup for every game the
// departed lobby member was in and closes the lobby once no active members
// remain.
func (e *Engine) cleanupLobbyMembership(ctx context.Context, details jobs.CleanupLobbyMembership) jobs.Job {
	status, err := e.releaseLobbyMember(ctx, details)
	if err != nil {
		e.log.WithError(err).Warnf("lobby membership cleanup failed for member %s", details.MemberID)
		details.Result = jobs.ErrID(err)
	} else {
		details.Result = jobs.OKID(status)
	}
	return jobs.Job{Kind: jobs.KindCleanupLobbyMembership, CleanupLobbyMembership: &details}
}

func (e *Engine) releaseLobbyMember(ctx context.Context, details jobs.CleanupLobbyMembership) (string, error) {
	remaining, err := e.records.CountActiveLobbyMembers(ctx, details.LobbyID)
	if err != nil {
		return "", err
	}

	memberships, err := e.records.LeaveGameMemberships(ctx, details.MemberID)
	if err != nil {
		return "", err
	}
	for _, m := range memberships {
		job := jobs.Job{
			Kind: jobs.KindCleanupGameMembership,
			CleanupGameMembership: &jobs.CleanupGameMembership{
				UserID:   m.UserID,
				MemberID: m.MemberID,
				LobbyID:  m.LobbyID,
				GameID:   m.GameID,
			},
		}
		if _, err := e.queue.Queue(ctx, job); err != nil {
			return "", err
		}
		e.log.Debugf("queued game membership cleanup for member %s in game %s", m.MemberID, m.GameID)
	}

	if remaining == 0 {
		closed, err := e.records.TryCloseLobby(ctx, details.LobbyID)
		if err != nil {
			return "", err
		}
		if closed {
			e.log.Infof("lobby %s had no remaining members, closed", details.LobbyID)
		}
		return "closed", nil
	}

	e.log.Infof("lobby %s has %d remaining members", details.LobbyID, remaining)
	return "done", nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
