package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BackupStatus handles GET /backup/status/:user_id.
func (s *Server) BackupStatus(c *gin.Context) {
	userID := c.Param("user_id")
	status, err := s.store.GetBackupStatus(c.Request.Context(), userID)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
