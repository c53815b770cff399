package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nyxlabs/recall/pkg/apierr"
	"github.com/nyxlabs/recall/pkg/models"
	"github.com/nyxlabs/recall/pkg/store"
)

type createEventRequest struct {
	OwnerUserID string    `json:"owner_user_id" binding:"required"`
	Description string    `json:"description" binding:"required"`
	EventTime   time.Time `json:"event_time" binding:"required"`
	SourceType  string    `json:"source_type"`
}

// CreateEvent handles POST /events.
func (s *Server) CreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	e := &models.Event{
		OwnerUserID: req.OwnerUserID,
		Description: req.Description,
		EventTime:   req.EventTime,
		SourceType:  req.SourceType,
		Status:      models.EventPending,
	}
	created, err := s.store.CreateEvent(c.Request.Context(), req.OwnerUserID, e)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListEvents handles GET /events?owner_user_id=&status=.
func (s *Server) ListEvents(c *gin.Context) {
	owner := c.Query("owner_user_id")
	if owner == "" {
		writeError(c, s.logger, apierr.Validationf("owner_user_id", "owner_user_id is required"))
		return
	}
	var status *models.EventStatus
	if raw := c.Query("status"); raw != "" {
		st := models.EventStatus(raw)
		status = &st
	}
	events, err := s.store.ListEvents(c.Request.Context(), owner, status, 0)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// UpdateEvent handles PATCH /events/:id.
func (s *Server) UpdateEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
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
	var patch store.EventPatch
	if v, ok := raw["description"]; ok {
		var d string
		if err := json.Unmarshal(v, &d); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		patch.Description = &d
	}
	if v, ok := raw["event_time"]; ok {
		var t time.Time
		if err := json.Unmarshal(v, &t); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		patch.EventTime = &t
	}
	if v, ok := raw["status"]; ok {
		var st models.EventStatus
		if err := json.Unmarshal(v, &st); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		patch.Status = &st
	}

	actor := "api"
	if v, ok := raw["actor"]; ok {
		_ = json.Unmarshal(v, &actor)
	}
	updated, err := s.store.UpdateEvent(c.Request.Context(), actor, id, patch)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
