// cmd/worker drains the job queue: it dequeues jobs one at a time, routes
// them to the engines, and writes results back for status polling. Run as
// many worker processes as needed; each is single-threaded.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/scrawl-party/scrawl/internal/engine"
	"github.com/scrawl-party/scrawl/internal/jobs"
	"github.com/scrawl-party/scrawl/internal/records"
)

func main() {
	logger := logrus.New()
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := records.Connect(ctx)
	if err != nil {
		logger.Fatalf("connect records store: %v", err)
	}
	defer store.Close()

	rdb, err := jobs.ConnectRedis(ctx)
	if err != nil {
		logger.Fatalf("connect job store: %v", err)
	}
	jobStore := jobs.NewStore(rdb, jobs.StoreConfigFromEnv(), logger)

	eng := engine.New(store, jobStore, logger)
	worker := jobs.NewWorker(jobStore, eng, logger, getEnvInt("WORKER_MAX_STORE_FAILURES", jobs.DefaultMaxStoreFailures))

	logger.Info("worker started")
	if err := worker.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("worker shutting down")
			return
		}
		logger.Fatalf("worker exited: %v", err)
	}
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
