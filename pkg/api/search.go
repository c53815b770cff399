package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nyxlabs/recall/pkg/fts"
)

// Search handles GET /search?q=&owner=&pinned=, per spec.md §4.3's
// empty-query policy (rejected unless pinned_only overrides it).
func (s *Server) Search(c *gin.Context) {
	owner := c.Query("owner")
	if owner == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner is required"})
		return
	}
	pinnedOnly, _ := strconv.ParseBool(c.Query("pinned"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	results, err := fts.Search(c.Request.Context(), s.store.DB(), fts.Query{
		Owner:      owner,
		Text:       c.Query("q"),
		PinnedOnly: pinnedOnly,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		if errors.Is(err, fts.ErrEmptyQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, results)
}
