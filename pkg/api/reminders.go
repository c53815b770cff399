package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nyxlabs/recall/pkg/models"
	"github.com/nyxlabs/recall/pkg/store"
)

type createReminderRequest struct {
	OwnerUserID       string     `json:"owner_user_id" binding:"required"`
	MemoryID          *uuid.UUID `json:"memory_id"`
	Text              string     `json:"text" binding:"required"`
	FireAt            time.Time  `json:"fire_at" binding:"required"`
	RecurrenceMinutes *int       `json:"recurrence_minutes"`
}

// CreateReminder handles POST /reminders.
func (s *Server) CreateReminder(c *gin.Context) {
	var req createReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r := &models.Reminder{
		OwnerUserID:       req.OwnerUserID,
		MemoryID:          req.MemoryID,
		Text:              req.Text,
		FireAt:            req.FireAt,
		RecurrenceMinutes: req.RecurrenceMinutes,
	}
	created, err := s.store.CreateReminder(c.Request.Context(), req.OwnerUserID, r)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListReminders handles GET /reminders?owner_user_id=&fired=&upcoming_only=&limit=.
func (s *Server) ListReminders(c *gin.Context) {
	owner := c.Query("owner_user_id")
	if owner == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner_user_id is required"})
		return
	}
	var fired *bool
	if raw := c.Query("fired"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fired value"})
			return
		}
		fired = &b
	}
	upcomingOnly, _ := strconv.ParseBool(c.Query("upcoming_only"))

	limit, _ := strconv.Atoi(c.Query("limit"))
	reminders, err := s.store.ListReminders(c.Request.Context(), owner, fired, upcomingOnly, limit)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, reminders)
}

// UpdateReminder handles PATCH /reminders/:id.
func (s *Server) UpdateReminder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reminder id"})
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
	var patch store.ReminderPatch
	if v, ok := raw["text"]; ok {
		var t string
		if err := json.Unmarshal(v, &t); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		patch.Text = &t
	}
	if v, ok := raw["fire_at"]; ok {
		var t time.Time
		if err := json.Unmarshal(v, &t); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		patch.FireAt = &t
	}
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
	updated, err := s.store.UpdateReminder(c.Request.Context(), actor, id, patch)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteReminder handles DELETE /reminders/:id.
func (s *Server) DeleteReminder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reminder id"})
		return
	}
	if err := s.store.DeleteReminder(c.Request.Context(), "api", id); err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
