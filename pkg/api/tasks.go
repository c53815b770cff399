package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nyxlabs/recall/pkg/apierr"
	"github.com/nyxlabs/recall/pkg/models"
	"github.com/nyxlabs/recall/pkg/store"
)

type createTaskRequest struct {
	OwnerUserID       string     `json:"owner_user_id" binding:"required"`
	MemoryID          *uuid.UUID `json:"memory_id"`
	Description       string     `json:"description" binding:"required"`
	DueAt             *time.Time `json:"due_at"`
	RecurrenceMinutes *int       `json:"recurrence_minutes"`
}

// CreateTask handles POST /tasks.
func (s *Server) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t := &models.Task{
		OwnerUserID:       req.OwnerUserID,
		MemoryID:          req.MemoryID,
		Description:       req.Description,
		DueAt:             req.DueAt,
		RecurrenceMinutes: req.RecurrenceMinutes,
	}
	created, err := s.store.CreateTask(c.Request.Context(), req.OwnerUserID, t)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListTasks handles GET /tasks?owner_user_id=&state=&limit=.
func (s *Server) ListTasks(c *gin.Context) {
	owner := c.Query("owner_user_id")
	if owner == "" {
		writeError(c, s.logger, apierr.Validationf("owner_user_id", "owner_user_id is required"))
		return
	}
	var state *models.TaskState
	if raw := c.Query("state"); raw != "" {
		st := models.TaskState(raw)
		state = &st
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	tasks, err := s.store.ListTasks(c.Request.Context(), owner, state, limit)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// UpdateTask handles PATCH /tasks/:id.
func (s *Server) UpdateTask(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	raw, err := rawPatch(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var patch store.TaskPatch
	if v, ok := raw["description"]; ok {
		var d string
		if err := json.Unmarshal(v, &d); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		patch.Description = &d
	}
	if v, ok := raw["state"]; ok {
		var st models.TaskState
		if err := json.Unmarshal(v, &st); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		patch.State = &st
	}
	dueAt, err := optionalField[time.Time](raw, "due_at")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	patch.DueAt = dueAt
	recurrence, err := optionalField[int](raw, "recurrence_minutes")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	patch.RecurrenceMinutes = recurrence

	actor := "api"
	if v, ok := raw["actor"]; ok {
		_ = json.Unmarshal(v, &actor)
	}
	updated, err := s.store.UpdateTask(c.Request.Context(), actor, id, patch)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteTask handles DELETE /tasks/:id.
func (s *Server) DeleteTask(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}
	if err := s.store.DeleteTask(c.Request.Context(), "api", id); err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
