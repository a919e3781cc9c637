package engine

import (
	"context"

	"github.com/scrawl-party/scrawl/internal/jobs"
)

// createLobby provisions a lobby with a generated name and the creator as its
// first member.
func (e *Engine) createLobby(ctx context.Context, details jobs.CreateLobby) jobs.Job {
	lobbyID, err := e.records.CreateLobby(ctx, details.Creator, randomName())
	if err != nil {
		e.log.WithError(err).Warnf("lobby creation failed for user %s", details.Creator)
		details.Result = jobs.ErrID(err)
	} else {
		e.log.Infof("created lobby %s for user %s", lobbyID, details.Creator)
		details.Result = jobs.OKID(lobbyID)
	}
	return jobs.Job{Kind: jobs.KindCreateLobby, CreateLobby: &details}
}

// createGame provisions a game inside a lobby: the game row, its prompt
// rounds (round 0 already started), and one game membership per active lobby
// member.
func (e *Engine) createGame(ctx context.Context, details jobs.CreateGame) jobs.Job {
	gameID, err := e.records.CreateGame(ctx, details.Creator, details.LobbyID, randomName())
	if err != nil {
		e.log.WithError(err).Warnf("game creation failed for lobby %s", details.LobbyID)
		details.Result = jobs.ErrID(err)
	} else {
		e.log.Infof("created game %s in lobby %s", gameID, details.LobbyID)
		details.Result = jobs.OKID(gameID)
	}
	return jobs.Job{Kind: jobs.KindCreateGame, CreateGame: &details}
}
