// cmd/server is the HTTP API: the producer side of the job queue.
package main

import (
	"context"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/scrawl-party/scrawl/internal/auth"
	"github.com/scrawl-party/scrawl/internal/handlers"
	"github.com/scrawl-party/scrawl/internal/jobs"
	"github.com/scrawl-party/scrawl/internal/middleware"
	"github.com/scrawl-party/scrawl/internal/records"
)

func main() {
	logger := logrus.New()
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}

	if err := auth.Init(); err != nil {
		logger.Fatalf("init auth: %v", err)
	}

	ctx := context.Background()
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

	api := handlers.NewAPI(store, jobStore, logger)
	logged := middleware.Log(logger)

	mux := http.NewServeMux()
	mux.Handle("/user", logged(http.HandlerFunc(api.CurrentUser)))
	mux.Handle("/user/create", logged(http.HandlerFunc(api.CreateUser)))
	mux.Handle("/user/login", logged(http.HandlerFunc(api.Login)))
	mux.Handle("/lobby", logged(http.HandlerFunc(api.GetLobby)))
	mux.Handle("/lobby/create", logged(http.HandlerFunc(api.CreateLobby)))
	mux.Handle("/lobby/join", logged(http.HandlerFunc(api.JoinLobby)))
	mux.Handle("/lobby/leave", logged(http.HandlerFunc(api.LeaveLobby)))
	mux.Handle("/game/create", logged(http.HandlerFunc(api.CreateGame)))
	mux.Handle("/game", logged(http.HandlerFunc(api.GetGame)))
	mux.Handle("/round", logged(http.HandlerFunc(api.GetRound)))
	mux.Handle("/round/entry", logged(http.HandlerFunc(api.CreateEntry)))
	mux.Handle("/round/vote", logged(http.HandlerFunc(api.CreateVote)))
	mux.Handle("/jobs", logged(http.HandlerFunc(api.JobStatus)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("api listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}
