package handlers

import (
	"net/http"
)

// JobStatus handles GET /jobs?id=: resolves the current state of a queued
// job, including its result once a worker has processed it.
func (a *API) JobStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, err := userFromRequest(r); err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}

	queued, err := a.Jobs.Lookup(r.Context(), id)
	if err != nil {
		a.Log.WithError(err).Error("job lookup")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if queued == nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, queued)
}
