// Package handlers is the producer side of the system: thin HTTP glue that
// validates requests, writes producer-owned rows, and enqueues jobs for the
// worker. All progression logic lives in the engines.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/scrawl-party/scrawl/internal/auth"
	"github.com/scrawl-party/scrawl/internal/jobs"
	"github.com/scrawl-party/scrawl/internal/records"
)

// JobQueue is the slice of the job store the API needs: enqueue and status
// lookup.
type JobQueue interface {
	Queue(ctx context.Context, job jobs.Job) (string, error)
	Lookup(ctx context.Context, id string) (*jobs.QueuedJob, error)
}

// API bundles the handlers' collaborators.
type API struct {
	Records *records.Store
	Jobs    JobQueue
	Log     *logrus.Logger
}

// NewAPI builds the handler set.
func NewAPI(rec *records.Store, queue JobQueue, log *logrus.Logger) *API {
	return &API{Records: rec, Jobs: queue, Log: log}
}

// queuedResponse is the body returned whenever a request only enqueues a job.
type queuedResponse struct {
	JobID string `json:"job_id"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// userFromRequest authenticates the auth_token cookie and returns the caller's
// user id.
func userFromRequest(r *http.Request) (uuid.UUID, error) {
	cookie, err := r.Cookie("auth_token")
	if err != nil {
		return uuid.Nil, err
	}
	userID, err := auth.VerifyToken(cookie.Value)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(userID)
}
