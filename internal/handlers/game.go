package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/scrawl-party/scrawl/internal/jobs"
	"github.com/scrawl-party/scrawl/internal/records"
)

type createGameRequest struct {
	LobbyID uuid.UUID `json:"lobby_id"`
}

// CreateGame handles POST /game/create: enqueues a create_game job.
func (a *API) CreateGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, err := userFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LobbyID == uuid.Nil {
		http.Error(w, "lobby_id required", http.StatusBadRequest)
		return
	}

	job := jobs.Job{
		Kind: jobs.KindCreateGame,
		CreateGame: &jobs.CreateGame{
			Creator: userID.String(),
			LobbyID: req.LobbyID.String(),
		},
	}
	jobID, err := a.Jobs.Queue(r.Context(), job)
	if err != nil {
		a.Log.WithError(err).Error("queue create_game")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusAccepted, queuedResponse{JobID: jobID})
}

// GetGame handles GET /game?id=: the game row, its rounds, and any final
// placements.
func (a *API) GetGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, err := userFromRequest(r); err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	gameID, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}

	game, err := a.Records.GetGame(r.Context(), gameID)
	if errors.Is(err, records.ErrNotFound) {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("get game")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	rounds, err := a.Records.ListRounds(r.Context(), gameID)
	if err != nil {
		a.Log.WithError(err).Error("list rounds")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	placements, err := a.Records.ListGamePlacements(r.Context(), gameID)
	if err != nil {
		a.Log.WithError(err).Error("list placements")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"game":       game,
		"rounds":     rounds,
		"placements": placements,
	})
}
