package jobs

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type dequeueStep struct {
	job *QueuedJob
	err error
}

// scriptedQueue serves a fixed dequeue script and cancels the run context once
// the script is exhausted, so Run terminates deterministically.
type scriptedQueue struct {
	steps     []dequeueStep
	cancel    context.CancelFunc
	dequeues  int
	updates   map[string]Job
	updateErr error
}

func newScriptedQueue(cancel context.CancelFunc, steps ...dequeueStep) *scriptedQueue {
	return &scriptedQueue{steps: steps, cancel: cancel, updates: map[string]Job{}}
}

func (q *scriptedQueue) Dequeue(ctx context.Context) (*QueuedJob, error) {
	if len(q.steps) == 0 {
		q.cancel()
		return nil, ctx.Err()
	}
	q.dequeues++
	step := q.steps[0]
	q.steps = q.steps[1:]
	return step.job, step.err
}

func (q *scriptedQueue) Update(ctx context.Context, id string, job Job) error {
	if q.updateErr != nil {
		return q.updateErr
	}
	q.updates[id] = job
	return nil
}

// stampHandler attaches a canned result to every fulfillment job it sees.
type stampHandler struct {
	handled []Job
}

func (h *stampHandler) Handle(ctx context.Context, job Job) Job {
	h.handled = append(h.handled, job)
	if job.CheckRoundFulfillment != nil {
		details := *job.CheckRoundFulfillment
		details.Result = OKCount(0)
		return Job{Kind: KindCheckRoundFulfillment, CheckRoundFulfillment: &details}
	}
	return job
}

func TestWorkerHandlesAndPersistsResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	queued := &QueuedJob{
		ID: "job-1",
		Job: Job{
			Kind:                  KindCheckRoundFulfillment,
			CheckRoundFulfillment: &CheckRoundFulfillment{RoundID: "round-1"},
		},
	}
	queue := newScriptedQueue(cancel, dequeueStep{job: queued})
	handler := &stampHandler{}

	worker := NewWorker(queue, handler, testLogger(), 0)
	err := worker.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Len(t, handler.handled, 1)
	stored, ok := queue.updates["job-1"]
	require.True(t, ok)
	assert.True(t, stored.Processed())
	assert.Equal(t, int64(0), *stored.CheckRoundFulfillment.Result.OK)
}

func TestWorkerSkipsEmptyQueue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	queue := newScriptedQueue(cancel, dequeueStep{}, dequeueStep{}, dequeueStep{})
	handler := &stampHandler{}

	worker := NewWorker(queue, handler, testLogger(), 0)
	err := worker.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 3, queue.dequeues)
	assert.Empty(t, handler.handled)
	assert.Empty(t, queue.updates)
}

func TestWorkerTerminatesAfterConsecutiveFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	down := errors.New("dial tcp: connection refused")
	queue := newScriptedQueue(cancel,
		dequeueStep{err: down},
		dequeueStep{err: down},
		dequeueStep{err: down},
	)

	worker := NewWorker(queue, &stampHandler{}, testLogger(), 2)
	err := worker.Run(ctx)
	require.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Equal(t, 3, queue.dequeues)
}

func TestWorkerSuccessResetsFailureCount(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	down := errors.New("dial tcp: connection refused")
	// Two failures, a successful empty pop, two more failures: never three in
	// a row, so the worker survives to the end of the script.
	queue := newScriptedQueue(cancel,
		dequeueStep{err: down},
		dequeueStep{err: down},
		dequeueStep{},
		dequeueStep{err: down},
		dequeueStep{err: down},
	)

	worker := NewWorker(queue, &stampHandler{}, testLogger(), 2)
	err := worker.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 5, queue.dequeues)
}

func TestWorkerCountsUpdateFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	job := Job{
		Kind:                  KindCheckRoundFulfillment,
		CheckRoundFulfillment: &CheckRoundFulfillment{RoundID: "round-1"},
	}
	queue := newScriptedQueue(cancel,
		dequeueStep{job: &QueuedJob{ID: "job-1", Job: job}},
		dequeueStep{job: &QueuedJob{ID: "job-2", Job: job}},
	)
	queue.updateErr = errors.New("dial tcp: connection refused")

	worker := NewWorker(queue, &stampHandler{}, testLogger(), 1)
	err := worker.Run(ctx)
	require.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestNewWorkerDefaultsThreshold(t *testing.T) {
	worker := NewWorker(&scriptedQueue{}, &stampHandler{}, testLogger(), -3)
	assert.Equal(t, DefaultMaxStoreFailures, worker.maxFailures)
}
