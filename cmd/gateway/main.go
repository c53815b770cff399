// Gateway is the thin chat adapter: an inbound HTTP seam a real
// chat-platform integration would call into, the pending-action state
// machine that resolves in-flight confirmations, and a consumer for the
// outbound notify stream. Chat-platform SDK plumbing itself is out of
// scope (spec.md §1).
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

	"github.com/nyxlabs/recall/pkg/config"
	"github.com/nyxlabs/recall/pkg/gateway"
	"github.com/nyxlabs/recall/pkg/gatewayclient"
	"github.com/nyxlabs/recall/pkg/session"
	"github.com/nyxlabs/recall/pkg/streams"
)

type inboundRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Text   string `json:"text" binding:"required"`
}

func main() {
	config.LoadDotenv()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.GatewayFromEnv()
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
	assistant := gateway.NewAssistantClient(cfg.AssistantURL)
	gw := gateway.New(core, sessions, assistant, logger)

	notifications := gateway.NewNotificationConsumer(broker, sessions, cfg.ConsumerName, logger)
	if err := notifications.Setup(ctx); err != nil {
		logger.Error("setting up notification consumer failed", "error", err)
		os.Exit(1)
	}
	go notifications.Run(ctx)
	defer notifications.Stop()

	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()
	router.POST("/inbound", func(c *gin.Context) {
		var req inboundRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		reply := gw.HandleInbound(c.Request.Context(), req.UserID, req.Text)
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
