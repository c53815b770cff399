// Core is the system of record: REST API over memories, tasks, reminders
// and events, plus the background scheduler that fires reminders, expires
// stale pending state, and requeues stale events.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nyxlabs/recall/pkg/api"
	"github.com/nyxlabs/recall/pkg/config"
	"github.com/nyxlabs/recall/pkg/database"
	"github.com/nyxlabs/recall/pkg/scheduler"
	"github.com/nyxlabs/recall/pkg/store"
	"github.com/nyxlabs/recall/pkg/streams"
)

func main() {
	config.LoadDotenv()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.CoreFromEnv()
	if err != nil {
		logger.Error("loading configuration failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		logger.Error("connecting to database failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("connecting to redis failed", "error", err)
		os.Exit(1)
	}

	st := store.New(db)
	broker := streams.New(rdb)

	sched := scheduler.New(st, broker, cfg.TickInterval, logger)
	sched.Start(ctx)
	defer sched.Stop()

	server := api.NewServer(st, logger)
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Router(),
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "error", err)
	}
}
