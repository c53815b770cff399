package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nyxlabs/recall/pkg/store"
)

// Server holds the dependencies every handler needs: the repository layer
// and a structured logger. Mirrors the teacher's api.Server shape
// (pkg/api/handlers.go) minus the WebSocket hub, which this spec has no
// use for.
type Server struct {
	store  *store.Store
	logger *slog.Logger
}

// NewServer builds a Server.
func NewServer(st *store.Store, logger *slog.Logger) *Server {
	return &Server{store: st, logger: logger}
}

// Router builds the gin engine with every route group registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.Health)

	r.POST("/memories", s.CreateMemory)
	r.GET("/memories/:id", s.GetMemory)
	r.PATCH("/memories/:id", s.UpdateMemory)
	r.DELETE("/memories/:id", s.DeleteMemory)
	r.POST("/memories/:id/tags", s.AddTags)
	r.DELETE("/memories/:id/tags/:tag", s.DeleteTag)

	r.POST("/tasks", s.CreateTask)
	r.GET("/tasks", s.ListTasks)
	r.PATCH("/tasks/:id", s.UpdateTask)
	r.DELETE("/tasks/:id", s.DeleteTask)

	r.POST("/reminders", s.CreateReminder)
	r.GET("/reminders", s.ListReminders)
	r.PATCH("/reminders/:id", s.UpdateReminder)
	r.DELETE("/reminders/:id", s.DeleteReminder)

	r.POST("/events", s.CreateEvent)
	r.GET("/events", s.ListEvents)
	r.PATCH("/events/:id", s.UpdateEvent)

	r.GET("/search", s.Search)

	r.GET("/settings/:user_id", s.GetSettings)
	r.PUT("/settings/:user_id", s.PutSettings)

	r.GET("/audit", s.ListAudit)

	r.POST("/llm_jobs", s.CreateJob)
	r.GET("/llm_jobs", s.ListJobs)
	r.GET("/llm_jobs/:id", s.GetJob)
	r.PATCH("/llm_jobs/:id", s.PatchJob)

	r.GET("/backup/status/:user_id", s.BackupStatus)

	return r
}

// Health reports the service and the database's reachability.
func (s *Server) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	if err := s.store.DB().PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
