// Worker consumes the per-job-type streams and runs each job through the model,
// posting results back to Core and publishing a notification for the
// gateway to deliver.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/nyxlabs/recall/pkg/config"
	"github.com/nyxlabs/recall/pkg/gatewayclient"
	"github.com/nyxlabs/recall/pkg/jobqueue"
	"github.com/nyxlabs/recall/pkg/llmclient"
	"github.com/nyxlabs/recall/pkg/llmhandlers"
	"github.com/nyxlabs/recall/pkg/streams"
)

func main() {
	config.LoadDotenv()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.WorkerFromEnv()
	if err != nil {
		logger.Error("loading configuration failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	broker := streams.New(rdb)
	core := gatewayclient.New(cfg.CoreBaseURL)
	model := llmclient.New(llmclient.Config{
		BaseURL:     cfg.ModelBaseURL,
		APIKey:      cfg.ModelAPIKey,
		TextModel:   cfg.TextModel,
		VisionModel: cfg.VisionModel,
	})

	handlers := map[string]jobqueue.Handler{
		"image_tag":       &llmhandlers.ImageTagHandler{Model: model, Core: core, MediaDir: cfg.MediaDir},
		"intent_classify": &llmhandlers.IntentClassifyHandler{Model: model},
		"followup":        &llmhandlers.FollowupHandler{Model: model},
		"task_match":      &llmhandlers.TaskMatchHandler{Model: model, Core: core},
		"email_extract":   &llmhandlers.EmailExtractHandler{Model: model, Core: core},
	}

	publisher := jobqueue.NewNotifyPublisher(broker)
	consumer := jobqueue.NewConsumer(broker, core, publisher, handlers, cfg.MaxRetries, cfg.ConsumerName, logger)

	if err := consumer.Setup(ctx); err != nil {
		logger.Error("setting up consumer group failed", "error", err)
		os.Exit(1)
	}

	logger.Info("worker started", "consumer", cfg.ConsumerName)
	consumer.Run(ctx)
	logger.Info("worker stopped")
}
