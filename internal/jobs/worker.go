package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// DefaultMaxStoreFailures is how many consecutive store errors a worker
// tolerates before terminating.
const DefaultMaxStoreFailures = 5

// ErrStoreUnavailable is returned by Worker.Run once the consecutive
// store-failure threshold is exceeded. The process should exit; an operator
// restarts it.
var ErrStoreUnavailable = errors.New("job store unavailable")

// Queue is the slice of the Store a worker needs.
type Queue interface {
	Dequeue(ctx context.Context) (*QueuedJob, error)
	Update(ctx context.Context, id string, job Job) error
}

// Handler routes a dequeued job to the matching engine and returns the same
// job with its result attached. Handlers never return an error: engine-level
// failures are captured inside the job's result and are not retried.
type Handler interface {
	Handle(ctx context.Context, job Job) Job
}

// Worker drains the queue one job at a time. Multiple worker processes may
// run against the same store; the FIFO pop delivers each id to exactly one of
// them per pop. Delivery is at-least-once overall, so handlers must be
// idempotent.
type Worker struct {
	queue       Queue
	handler     Handler
	log         *logrus.Logger
	maxFailures int
}

// NewWorker builds a worker. maxFailures <= 0 selects DefaultMaxStoreFailures.
func NewWorker(queue Queue, handler Handler, log *logrus.Logger, maxFailures int) *Worker {
	if maxFailures <= 0 {
		maxFailures = DefaultMaxStoreFailures
	}
	return &Worker{queue: queue, handler: handler, log: log, maxFailures: maxFailures}
}

// Run loops until the context is canceled or the store-failure threshold is
// hit. Store errors retry with a hard cap; an empty queue simply loops (the
// store's bounded pop already paces the loop).
func (w *Worker) Run(ctx context.Context) error {
	failures := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		queued, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures++
			if failures > w.maxFailures {
				w.log.WithError(err).Error("job store unreachable, terminating worker")
				return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
			w.log.WithError(err).Warnf("dequeue failed (%d/%d consecutive)", failures, w.maxFailures)
			continue
		}

		if queued == nil {
			// Empty queue after the bounded wait.
			failures = 0
			continue
		}

		w.log.WithFields(logrus.Fields{"job_id": queued.ID, "kind": queued.Job.Kind}).Info("processing job")
		done := w.handler.Handle(ctx, queued.Job)

		if err := w.queue.Update(ctx, queued.ID, done); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures++
			if failures > w.maxFailures {
				w.log.WithError(err).Error("job store unreachable, terminating worker")
				return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
			w.log.WithError(err).Warnf("result write for job %s failed (%d/%d consecutive)", queued.ID, failures, w.maxFailures)
			continue
		}
		failures = 0
	}
}
