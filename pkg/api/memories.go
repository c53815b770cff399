package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nyxlabs/recall/pkg/apierr"
	"github.com/nyxlabs/recall/pkg/models"
	"github.com/nyxlabs/recall/pkg/store"
)

// createMemoryRequest is the POST /memories body.
type createMemoryRequest struct {
	OwnerUserID string           `json:"owner_user_id" binding:"required"`
	Content     string           `json:"content"`
	Media       *models.MediaRef `json:"media"`
	IsPinned    bool             `json:"is_pinned"`
}

// CreateMemory handles POST /memories.
func (s *Server) CreateMemory(c *gin.Context) {
	var req createMemoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m := &models.Memory{
		OwnerUserID: req.OwnerUserID,
		Content:     req.Content,
		Media:       req.Media,
		IsPinned:    req.IsPinned,
	}
	created, err := s.store.CreateMemory(c.Request.Context(), req.OwnerUserID, m)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetMemory handles GET /memories/:id.
func (s *Server) GetMemory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid memory id"})
		return
	}
	m, err := s.store.GetMemory(c.Request.Context(), id)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// updateMemoryRequest is the PATCH /memories/:id body.
type updateMemoryRequest struct {
	Content  *string              `json:"content"`
	IsPinned *bool                `json:"is_pinned"`
	Status   *models.MemoryStatus `json:"status"`
	Actor    string               `json:"actor"`
}

// UpdateMemory handles PATCH /memories/:id.
func (s *Server) UpdateMemory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid memory id"})
		return
	}
	var req updateMemoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor := req.Actor
	if actor == "" {
		actor = "api"
	}
	updated, err := s.store.UpdateMemory(c.Request.Context(), actor, id, store.MemoryPatch{
		Content:  req.Content,
		IsPinned: req.IsPinned,
		Status:   req.Status,
	})
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteMemory handles DELETE /memories/:id. The caller (media-aware; this
// package is not) is responsible for unlinking the blob on a confirmed 200.
func (s *Server) DeleteMemory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid memory id"})
		return
	}
	removed, err := s.store.DeleteMemory(c.Request.Context(), "api", id)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, removed)
}

// addTagsRequest is the POST /memories/:id/tags body.
type addTagsRequest struct {
	Tags   []string         `json:"tags" binding:"required"`
	Status models.TagStatus `json:"status" binding:"required"`
}

// AddTags handles POST /memories/:id/tags.
func (s *Server) AddTags(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid memory id"})
		return
	}
	var req addTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Status.Valid() {
		writeError(c, s.logger, apierr.Validationf("status", "invalid tag status %q", req.Status))
		return
	}
	if err := s.store.AddTags(c.Request.Context(), "api", id, req.Tags, req.Status); err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// DeleteTag handles DELETE /memories/:id/tags/:tag.
func (s *Server) DeleteTag(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid memory id"})
		return
	}
	if err := s.store.DeleteTag(c.Request.Context(), "api", id, c.Param("tag")); err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
