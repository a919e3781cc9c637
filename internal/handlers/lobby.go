package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/scrawl-party/scrawl/internal/jobs"
	"github.com/scrawl-party/scrawl/internal/records"
)

// CreateLobby handles POST /lobby/create: enqueues a create_lobby job and
// returns its id for status polling.
func (a *API) CreateLobby(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, err := userFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	job := jobs.Job{
		Kind:        jobs.KindCreateLobby,
		CreateLobby: &jobs.CreateLobby{Creator: userID.String()},
	}
	jobID, err := a.Jobs.Queue(r.Context(), job)
	if err != nil {
		a.Log.WithError(err).Error("queue create_lobby")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusAccepted, queuedResponse{JobID: jobID})
}

// GetLobby handles GET /lobby?id=.
func (a *API) GetLobby(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, err := userFromRequest(r); err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	lobbyID, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}

	lobby, err := a.Records.GetLobby(r.Context(), lobbyID)
	if errors.Is(err, records.ErrNotFound) {
		http.Error(w, "lobby not found", http.StatusNotFound)
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("get lobby")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, lobby)
}

type lobbyMembershipRequest struct {
	LobbyID   uuid.UUID  `json:"lobby_id"`
	InvitedBy *uuid.UUID `json:"invited_by,omitempty"`
}

// JoinLobby handles POST /lobby/join.
func (a *API) JoinLobby(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, err := userFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req lobbyMembershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LobbyID == uuid.Nil {
		http.Error(w, "lobby_id required", http.StatusBadRequest)
		return
	}

	memberID, err := a.Records.JoinLobby(r.Context(), req.LobbyID, userID, req.InvitedBy)
	if errors.Is(err, records.ErrNotFound) {
		http.Error(w, "lobby not open", http.StatusNotFound)
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("join lobby")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"member_id": memberID.String()})
}

// LeaveLobby handles POST /lobby/leave: marks the membership left, then hands
// the cascade (game cleanup, lobby close) to the worker.
func (a *API) LeaveLobby(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, err := userFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req lobbyMembershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LobbyID == uuid.Nil {
		http.Error(w, "lobby_id required", http.StatusBadRequest)
		return
	}

	memberID, err := a.Records.LeaveLobby(r.Context(), req.LobbyID, userID)
	if errors.Is(err, records.ErrNotFound) {
		http.Error(w, "no active membership", http.StatusNotFound)
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("leave lobby")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	job := jobs.Job{
		Kind: jobs.KindCleanupLobbyMembership,
		CleanupLobbyMembership: &jobs.CleanupLobbyMembership{
			MemberID: memberID.String(),
			LobbyID:  req.LobbyID.String(),
		},
	}
	jobID, err := a.Jobs.Queue(r.Context(), job)
	if err != nil {
		a.Log.WithError(err).Error("queue cleanup_lobby_membership")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusAccepted, queuedResponse{JobID: jobID})
}
