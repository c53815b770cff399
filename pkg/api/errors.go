// Package api implements Core's REST surface: standard CRUD over the data
// model plus search, settings, audit, job, and backup-status endpoints
// (spec.md §6). Grounded on the teacher's pkg/api/handlers.go gin wiring;
// error mapping is adapted from the teacher's own pkg/api/errors.go
// mapServiceError, which dispatches on errors.As/errors.Is against a sentinel
// set — here apierr's rather than services' — but targets gin's
// c.JSON(status, gin.H{...}) instead of echo.HTTPError, since the teacher's
// go.mod declares gin and cmd/tarsy/main.go wires gin, not echo.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nyxlabs/recall/pkg/apierr"
)

// writeError maps a service-layer error to an HTTP status and JSON body,
// aborting the request. Validation errors are surfaced verbatim as 400;
// not-found, conflict and upstream-unavailable errors map to 404, 409 and
// 503 with a fixed message; anything else is logged and collapsed to a
// generic 500, per spec.md §7's error taxonomy.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	var validErr *apierr.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validErr.Error()})
		return
	}
	if errors.Is(err, apierr.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
		return
	}
	if errors.Is(err, apierr.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": "resource conflict"})
		return
	}
	if errors.Is(err, apierr.ErrUpstreamUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "upstream unavailable"})
		return
	}
	logger.Error("unexpected service error", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
