package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/scrawl-party/scrawl/internal/jobs"
	"github.com/scrawl-party/scrawl/internal/records"
)

type entryRequest struct {
	RoundID uuid.UUID `json:"round_id"`
	Content string    `json:"content"`
}

// CreateEntry handles POST /round/entry: stores the caller's entry and
// enqueues a fulfillment check for the round.
func (a *API) CreateEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, err := userFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RoundID == uuid.Nil {
		http.Error(w, "round_id required", http.StatusBadRequest)
		return
	}

	entryID, err := a.Records.CreateEntry(r.Context(), req.RoundID, userID, req.Content)
	if errors.Is(err, records.ErrNotFound) {
		http.Error(w, "round not open for entries", http.StatusConflict)
		return
	}
	if errors.Is(err, records.ErrAlreadySubmitted) {
		http.Error(w, "entry already submitted", http.StatusConflict)
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("create entry")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	job := jobs.Job{
		Kind:                  jobs.KindCheckRoundFulfillment,
		CheckRoundFulfillment: &jobs.CheckRoundFulfillment{RoundID: req.RoundID.String()},
	}
	jobID, err := a.Jobs.Queue(r.Context(), job)
	if err != nil {
		a.Log.WithError(err).Error("queue check_round_fulfillment")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"entry_id": entryID.String(),
		"job_id":   jobID,
	})
}

// GetRound handles GET /round?id=: the round row and, once completed, its
// placements.
func (a *API) GetRound(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, err := userFromRequest(r); err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	roundID, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}

	round, err := a.Records.GetRound(r.Context(), roundID)
	if errors.Is(err, records.ErrNotFound) {
		http.Error(w, "round not found", http.StatusNotFound)
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("get round")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	placements, err := a.Records.ListRoundPlacements(r.Context(), roundID)
	if err != nil {
		a.Log.WithError(err).Error("list round placements")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"round":      round,
		"placements": placements,
	})
}

type voteRequest struct {
	RoundID uuid.UUID `json:"round_id"`
	EntryID uuid.UUID `json:"entry_id"`
}

// CreateVote handles POST /round/vote: stores the caller's vote and enqueues
// a completion check for the round.
func (a *API) CreateVote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, err := userFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RoundID == uuid.Nil || req.EntryID == uuid.Nil {
		http.Error(w, "round_id and entry_id required", http.StatusBadRequest)
		return
	}

	round, err := a.Records.GetRound(r.Context(), req.RoundID)
	if errors.Is(err, records.ErrNotFound) {
		http.Error(w, "round not found", http.StatusNotFound)
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("get round")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	voteID, err := a.Records.CreateVote(r.Context(), req.RoundID, userID, req.EntryID)
	if errors.Is(err, records.ErrNotFound) {
		// Covers closed rounds, non-members, cross-round entries and
		// self-votes alike.
		http.Error(w, "vote not allowed", http.StatusConflict)
		return
	}
	if errors.Is(err, records.ErrAlreadySubmitted) {
		http.Error(w, "vote already cast", http.StatusConflict)
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("create vote")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	job := jobs.Job{
		Kind: jobs.KindCheckRoundCompletion,
		CheckRoundCompletion: &jobs.CheckRoundCompletion{
			RoundID: req.RoundID.String(),
			GameID:  round.GameID.String(),
		},
	}
	jobID, err := a.Jobs.Queue(r.Context(), job)
	if err != nil {
		a.Log.WithError(err).Error("queue check_round_completion")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"vote_id": voteID.String(),
		"job_id":  jobID,
	})
}
