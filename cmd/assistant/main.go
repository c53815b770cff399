// Assistant runs the conversational agent core: a tool-calling chat loop
// over HTTP for the gateway to call, and a background daily-digest loop.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/nyxlabs/recall/pkg/agent"
	"github.com/nyxlabs/recall/pkg/agenttools"
	"github.com/nyxlabs/recall/pkg/config"
	"github.com/nyxlabs/recall/pkg/digest"
	"github.com/nyxlabs/recall/pkg/gatewayclient"
	"github.com/nyxlabs/recall/pkg/llmclient"
	"github.com/nyxlabs/recall/pkg/session"
	"github.com/nyxlabs/recall/pkg/streams"
)

const systemPromptTemplate = `You are Recall, a personal memory and task assistant.
Use the available tools to create and look up the user's memories, tasks, and reminders.
Be concise. Never invent facts not present in the briefing or tool results below.

{{briefing}}`

type chatRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Text   string `json:"text" binding:"required"`
}

func main() {
	config.LoadDotenv()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.AssistantFromEnv()
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

	sessions := session.New(rdb)
	broker := streams.New(rdb)
	core := gatewayclient.New(cfg.CoreBaseURL)
	model := llmclient.New(llmclient.Config{
		BaseURL:     cfg.ModelBaseURL,
		APIKey:      cfg.ModelAPIKey,
		TextModel:   cfg.ChatModel,
		VisionModel: cfg.ChatModel,
	})

	a := &agent.Agent{
		Model:    llmclient.NewAgentAdapter(model),
		Executor: agenttools.NewExecutor(core),
		Sessions: sessions,
		Briefing: core,
		Config: agent.Config{
			WindowTokens:          cfg.WindowTokens,
			BriefingBudgetTokens:  cfg.BriefingBudget,
			ResponseReserveTokens: cfg.ResponseReserve,
			SystemPromptTemplate:  systemPromptTemplate,
		},
		Logger: logger,
	}

	digestSvc := digest.New(core, sessions, broker, cfg.DigestHour, cfg.DigestInterval, cfg.BriefingBudget, cfg.AllowedUsers, logger)
	digestSvc.Start(ctx)
	defer digestSvc.Stop()

	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()
	router.POST("/chat", func(c *gin.Context) {
		var req chatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		reply, err := a.RunTurn(c.Request.Context(), req.UserID, req.Text)
		if err != nil {
			logger.Error("agent turn failed", "user_id", req.UserID, "error", err)
			c.JSON(http.StatusOK, gin.H{"reply": "Sorry, something went wrong. Please try again."})
			return
		}
		c.JSON(http.StatusOK, gin.H{"reply": reply})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: router}
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
