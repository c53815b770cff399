package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nyxlabs/recall/pkg/models"
	"github.com/nyxlabs/recall/pkg/store"
)

// ListAudit handles GET /audit?entity_type=&entity_id=&action=&actor=&limit=&offset=.
func (s *Server) ListAudit(c *gin.Context) {
	var filter store.AuditFilter
	if v := c.Query("entity_type"); v != "" {
		filter.EntityType = &v
	}
	if v := c.Query("entity_id"); v != "" {
		filter.EntityID = &v
	}
	if v := c.Query("action"); v != "" {
		a := models.AuditAction(v)
		filter.Action = &a
	}
	if v := c.Query("actor"); v != "" {
		filter.Actor = &v
	}
	filter.Limit, _ = strconv.Atoi(c.Query("limit"))
	filter.Offset, _ = strconv.Atoi(c.Query("offset"))

	records, err := s.store.ListAuditRecords(c.Request.Context(), filter)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, records)
}
