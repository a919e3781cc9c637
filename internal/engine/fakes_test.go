package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/scrawl-party/scrawl/internal/jobs"
)

// fakeRound mirrors the columns the engines touch.
type fakeRound struct {
	GameID      string
	Position    int
	Members     int64
	Entries     int64
	Votes       int64
	StartedAt   *time.Time
	FulfilledAt *time.Time
	CompletedAt *time.Time
}

type fakeGame struct {
	RoundIDs []string // position order
	EndedAt  *time.Time
}

type fakeLobby struct {
	ActiveMembers int64
	ClosedAt      *time.Time
}

// fakeRecords is an in-memory Records implementation. Conditional updates
// behave like their SQL counterparts: set-if-unset, reporting whether a row
// changed, so idempotence is observable through unchanged timestamps.
type fakeRecords struct {
	rounds  map[string]*fakeRound
	games   map[string]*fakeGame
	lobbies map[string]*fakeLobby

	// noEntry maps "userID|gameID" to round ids lacking an entry.
	noEntry map[string][]string
	// backfilled tracks "memberID|roundID" pairs to emulate the uniqueness
	// guard on entries.
	backfilled map[string]bool
	// memberships maps lobby member id to game memberships to leave.
	memberships map[string][]GameMembership

	roundPlacements map[string][]string
	gamePlacements  map[string][]string
	placementSeq    int

	// errs forces a method (by name) to fail.
	errs map[string]error
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{
		rounds:          map[string]*fakeRound{},
		games:           map[string]*fakeGame{},
		lobbies:         map[string]*fakeLobby{},
		noEntry:         map[string][]string{},
		backfilled:      map[string]bool{},
		memberships:     map[string][]GameMembership{},
		roundPlacements: map[string][]string{},
		gamePlacements:  map[string][]string{},
		errs:            map[string]error{},
	}
}

// addGame wires a game with rounds at contiguous positions, all sharing the
// same member count. Round 0 starts started.
func (f *fakeRecords) addGame(gameID string, roundIDs []string, members int64) {
	now := time.Now()
	f.games[gameID] = &fakeGame{RoundIDs: roundIDs}
	for i, id := range roundIDs {
		r := &fakeRound{GameID: gameID, Position: i, Members: members}
		if i == 0 {
			started := now
			r.StartedAt = &started
		}
		f.rounds[id] = r
	}
}

func (f *fakeRecords) fail(method string) error { return f.errs[method] }

func (f *fakeRecords) round(roundID string) (*fakeRound, error) {
	r, ok := f.rounds[roundID]
	if !ok {
		return nil, fmt.Errorf("no round %s", roundID)
	}
	return r, nil
}

func (f *fakeRecords) CreateLobby(ctx context.Context, creatorID, name string) (string, error) {
	if err := f.fail("CreateLobby"); err != nil {
		return "", err
	}
	id := uuid.New().String()
	f.lobbies[id] = &fakeLobby{ActiveMembers: 1}
	return id, nil
}

func (f *fakeRecords) CreateGame(ctx context.Context, creatorID, lobbyID, name string) (string, error) {
	if err := f.fail("CreateGame"); err != nil {
		return "", err
	}
	if _, ok := f.lobbies[lobbyID]; !ok {
		return "", fmt.Errorf("no open lobby %s", lobbyID)
	}
	id := uuid.New().String()
	f.addGame(id, []string{uuid.New().String(), uuid.New().String(), uuid.New().String()}, f.lobbies[lobbyID].ActiveMembers)
	return id, nil
}

func (f *fakeRecords) CountEntries(ctx context.Context, roundID string) (int64, error) {
	if err := f.fail("CountEntries"); err != nil {
		return 0, err
	}
	r, err := f.round(roundID)
	if err != nil {
		return 0, err
	}
	return r.Entries, nil
}

func (f *fakeRecords) CountRoundMembers(ctx context.Context, roundID string) (int64, error) {
	if err := f.fail("CountRoundMembers"); err != nil {
		return 0, err
	}
	r, err := f.round(roundID)
	if err != nil {
		return 0, err
	}
	return r.Members, nil
}

func (f *fakeRecords) TryMarkRoundFulfilled(ctx context.Context, roundID string) (*RoundPosition, error) {
	if err := f.fail("TryMarkRoundFulfilled"); err != nil {
		return nil, err
	}
	r, err := f.round(roundID)
	if err != nil {
		return nil, err
	}
	if r.FulfilledAt != nil {
		return nil, nil
	}
	now := time.Now()
	r.FulfilledAt = &now
	return &RoundPosition{Position: r.Position, GameID: r.GameID}, nil
}

func (f *fakeRecords) TryStartRound(ctx context.Context, gameID string, position int) (bool, error) {
	if err := f.fail("TryStartRound"); err != nil {
		return false, err
	}
	g, ok := f.games[gameID]
	if !ok || position >= len(g.RoundIDs) {
		return false, nil
	}
	r := f.rounds[g.RoundIDs[position]]
	if r.StartedAt != nil {
		return false, nil
	}
	now := time.Now()
	r.StartedAt = &now
	return true, nil
}

func (f *fakeRecords) CountVotes(ctx context.Context, roundID string) (int64, error) {
	if err := f.fail("CountVotes"); err != nil {
		return 0, err
	}
	r, err := f.round(roundID)
	if err != nil {
		return 0, err
	}
	return r.Votes, nil
}

func (f *fakeRecords) TryMarkRoundCompleted(ctx context.Context, roundID string) (bool, error) {
	if err := f.fail("TryMarkRoundCompleted"); err != nil {
		return false, err
	}
	r, err := f.round(roundID)
	if err != nil {
		return false, err
	}
	if r.CompletedAt != nil {
		return false, nil
	}
	now := time.Now()
	r.CompletedAt = &now
	return true, nil
}

func (f *fakeRecords) CreateRoundPlacements(ctx context.Context, roundID string) ([]string, error) {
	if err := f.fail("CreateRoundPlacements"); err != nil {
		return nil, err
	}
	if _, done := f.roundPlacements[roundID]; done {
		// Uniqueness guard: nothing inserted on a rerun.
		return []string{}, nil
	}
	r, err := f.round(roundID)
	if err != nil {
		return nil, err
	}
	ids := f.mintPlacements(r.Entries)
	f.roundPlacements[roundID] = ids
	return ids, nil
}

func (f *fakeRecords) CountOpenRounds(ctx context.Context, gameID string) (int64, error) {
	if err := f.fail("CountOpenRounds"); err != nil {
		return 0, err
	}
	g, ok := f.games[gameID]
	if !ok {
		return 0, fmt.Errorf("no game %s", gameID)
	}
	var open int64
	for _, id := range g.RoundIDs {
		if f.rounds[id].CompletedAt == nil {
			open++
		}
	}
	return open, nil
}

func (f *fakeRecords) CreateGamePlacements(ctx context.Context, gameID string) ([]string, error) {
	if err := f.fail("CreateGamePlacements"); err != nil {
		return nil, err
	}
	if _, done := f.gamePlacements[gameID]; done {
		return []string{}, nil
	}
	g, ok := f.games[gameID]
	if !ok {
		return nil, fmt.Errorf("no game %s", gameID)
	}
	members := f.rounds[g.RoundIDs[0]].Members
	ids := f.mintPlacements(members)
	f.gamePlacements[gameID] = ids
	return ids, nil
}

func (f *fakeRecords) TryMarkGameEnded(ctx context.Context, gameID string) (bool, error) {
	if err := f.fail("TryMarkGameEnded"); err != nil {
		return false, err
	}
	g, ok := f.games[gameID]
	if !ok {
		return false, fmt.Errorf("no game %s", gameID)
	}
	if g.EndedAt != nil {
		return false, nil
	}
	now := time.Now()
	g.EndedAt = &now
	return true, nil
}

func (f *fakeRecords) RoundsWithoutEntry(ctx context.Context, userID, gameID string) ([]string, error) {
	if err := f.fail("RoundsWithoutEntry"); err != nil {
		return nil, err
	}
	var missing []string
	for _, id := range f.noEntry[userID+"|"+gameID] {
		if !f.backfilled[userID+"|"+id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (f *fakeRecords) BackfillEntries(ctx context.Context, userID, memberID string, roundIDs []string) ([]string, error) {
	if err := f.fail("BackfillEntries"); err != nil {
		return nil, err
	}
	inserted := []string{}
	for _, roundID := range roundIDs {
		if f.backfilled[userID+"|"+roundID] {
			continue
		}
		f.backfilled[userID+"|"+roundID] = true
		if r, ok := f.rounds[roundID]; ok {
			r.Entries++
		}
		inserted = append(inserted, roundID)
	}
	return inserted, nil
}

func (f *fakeRecords) CountActiveLobbyMembers(ctx context.Context, lobbyID string) (int64, error) {
	if err := f.fail("CountActiveLobbyMembers"); err != nil {
		return 0, err
	}
	l, ok := f.lobbies[lobbyID]
	if !ok {
		return 0, fmt.Errorf("no lobby %s", lobbyID)
	}
	return l.ActiveMembers, nil
}

func (f *fakeRecords) LeaveGameMemberships(ctx context.Context, lobbyMemberID string) ([]GameMembership, error) {
	if err := f.fail("LeaveGameMemberships"); err != nil {
		return nil, err
	}
	left := f.memberships[lobbyMemberID]
	delete(f.memberships, lobbyMemberID)
	return left, nil
}

func (f *fakeRecords) TryCloseLobby(ctx context.Context, lobbyID string) (bool, error) {
	if err := f.fail("TryCloseLobby"); err != nil {
		return false, err
	}
	l, ok := f.lobbies[lobbyID]
	if !ok {
		return false, fmt.Errorf("no lobby %s", lobbyID)
	}
	if l.ClosedAt != nil {
		return false, nil
	}
	now := time.Now()
	l.ClosedAt = &now
	return true, nil
}

func (f *fakeRecords) mintPlacements(n int64) []string {
	ids := make([]string, 0, n)
	for i := int64(0); i < n; i++ {
		f.placementSeq++
		ids = append(ids, fmt.Sprintf("placement-%d", f.placementSeq))
	}
	return ids
}

// fakeJobQueue records every cascaded job.
type fakeJobQueue struct {
	queued []jobs.Job
	err    error
}

func (f *fakeJobQueue) Queue(ctx context.Context, job jobs.Job) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.queued = append(f.queued, job)
	return uuid.New().String(), nil
}
