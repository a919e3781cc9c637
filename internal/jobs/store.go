package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// StoreConfig names the Redis keys backing the job store and bounds the
// blocking pop used by Dequeue.
type StoreConfig struct {
	// QueueKey is the FIFO list of pending job ids.
	QueueKey string
	// MapKey is the hash mapping job id -> serialized QueuedJob.
	MapKey string
	// DequeueKey is the hash mapping job id -> dequeue timestamp. It is
	// write-only observability; nothing in the engine reads it back.
	DequeueKey string
	// PopTimeout bounds how long Dequeue blocks on an empty queue.
	PopTimeout time.Duration
}

// StoreConfigFromEnv builds a StoreConfig from environment variables:
//   - JOB_QUEUE_KEY (default "scrawl:jobs:queue")
//   - JOB_MAP_KEY (default "scrawl:jobs:state")
//   - JOB_DEQUEUE_KEY (default "scrawl:jobs:dequeued")
//   - JOB_POP_TIMEOUT_SEC (default 10)
func StoreConfigFromEnv() StoreConfig {
	return StoreConfig{
		QueueKey:   getEnv("JOB_QUEUE_KEY", "scrawl:jobs:queue"),
		MapKey:     getEnv("JOB_MAP_KEY", "scrawl:jobs:state"),
		DequeueKey: getEnv("JOB_DEQUEUE_KEY", "scrawl:jobs:dequeued"),
		PopTimeout: time.Duration(getEnvInt("JOB_POP_TIMEOUT_SEC", 10)) * time.Second,
	}
}

// Store is the durable FIFO handoff between producers and workers. Producers
// Queue jobs and Lookup their status; workers Dequeue and Update them. Any
// number of processes may share one store; the list pop is the only
// concurrency control.
type Store struct {
	rdb *redis.Client
	cfg StoreConfig
	log *logrus.Logger
}

// NewStore wraps an already-connected Redis client.
func NewStore(rdb *redis.Client, cfg StoreConfig, log *logrus.Logger) *Store {
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = 10 * time.Second
	}
	return &Store{rdb: rdb, cfg: cfg, log: log}
}

// ConnectRedis dials Redis using REDIS_ADDR (default "localhost:6379") and
// REDIS_DB (default 0) and verifies the connection with a ping.
func ConnectRedis(ctx context.Context) (*redis.Client, error) {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   getEnvInt("REDIS_DB", 0),
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Queue mints a fresh id for the job, persists it in the status map, then
// appends the id to the FIFO list. The map write happens first so a consumer
// waking on the list entry can always resolve the id.
func (s *Store) Queue(ctx context.Context, job Job) (string, error) {
	id := uuid.New().String()
	queued := QueuedJob{ID: id, Job: job}

	data, err := json.Marshal(queued)
	if err != nil {
		return "", fmt.Errorf("serialize job: %w", err)
	}
	if err := s.rdb.HSet(ctx, s.cfg.MapKey, id, data).Err(); err != nil {
		return "", fmt.Errorf("write job %s to status map: %w", id, err)
	}
	if err := s.rdb.RPush(ctx, s.cfg.QueueKey, id).Err(); err != nil {
		return "", fmt.Errorf("push job %s to queue: %w", id, err)
	}

	s.log.WithFields(logrus.Fields{"job_id": id, "kind": job.Kind}).Debug("job queued")
	return id, nil
}

// Dequeue pops the oldest pending job id with a bounded blocking wait. An
// empty queue after the wait yields (nil, nil), not an error. On a popped id
// it records the dequeue timestamp and resolves the full job from the status
// map.
func (s *Store) Dequeue(ctx context.Context) (*QueuedJob, error) {
	res, err := s.rdb.BLPop(ctx, s.cfg.PopTimeout, s.cfg.QueueKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pop job queue: %w", err)
	}
	if len(res) < 2 {
		s.log.Warnf("unexpected blpop reply of length %d", len(res))
		return nil, nil
	}

	// res[0] is the list key, res[1] the popped id.
	id := res[1]
	stamp := time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.rdb.HSet(ctx, s.cfg.DequeueKey, id, stamp).Err(); err != nil {
		return nil, fmt.Errorf("record dequeue of job %s: %w", id, err)
	}

	queued, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if queued == nil {
		s.log.Warnf("popped job id %s missing from status map", id)
	}
	return queued, nil
}

// Update overwrites the status-map entry for id with the given job, which now
// carries a populated result. This is the only mutation after Queue.
func (s *Store) Update(ctx context.Context, id string, job Job) error {
	data, err := json.Marshal(QueuedJob{ID: id, Job: job})
	if err != nil {
		return fmt.Errorf("serialize job %s: %w", id, err)
	}
	if err := s.rdb.HSet(ctx, s.cfg.MapKey, id, data).Err(); err != nil {
		return fmt.Errorf("update job %s in status map: %w", id, err)
	}
	return nil
}

// Lookup resolves the current state of a job by id; (nil, nil) when no such
// job exists.
func (s *Store) Lookup(ctx context.Context, id string) (*QueuedJob, error) {
	return s.resolve(ctx, id)
}

func (s *Store) resolve(ctx context.Context, id string) (*QueuedJob, error) {
	data, err := s.rdb.HGet(ctx, s.cfg.MapKey, id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read job %s from status map: %w", id, err)
	}

	var queued QueuedJob
	if err := json.Unmarshal([]byte(data), &queued); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &queued, nil
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
