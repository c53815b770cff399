package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nyxlabs/recall/pkg/models"
)

// GetSettings handles GET /settings/:user_id.
func (s *Server) GetSettings(c *gin.Context) {
	userID := c.Param("user_id")
	settings, err := s.store.GetSettings(c.Request.Context(), userID)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

type putSettingsRequest struct {
	Timezone string `json:"timezone" binding:"required"`
	Language string `json:"language" binding:"required"`
}

// PutSettings handles PUT /settings/:user_id.
func (s *Server) PutSettings(c *gin.Context) {
	userID := c.Param("user_id")
	var req putSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := s.store.UpsertSettings(c.Request.Context(), &models.UserSettings{
		UserID:   userID,
		Timezone: req.Timezone,
		Language: req.Language,
	})
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
