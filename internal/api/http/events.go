package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/ipcsim/internal/infrastructure/eventlog"
)

// Events handles GET /api/events: the newest events first, 200 by default.
func (h *Handlers) Events(c *gin.Context) {
	if h.store == nil {
		fail(c, http.StatusServiceUnavailable, "event log disabled")
		return
	}

	limit := eventlog.DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			fail(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	rows, err := h.store.Recent(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "rows": rows})
}

// ExportEvents handles GET /api/events/export: the whole history as a
// gzip-compressed NDJSON download, oldest first.
func (h *Handlers) ExportEvents(c *gin.Context) {
	if h.store == nil {
		fail(c, http.StatusServiceUnavailable, "event log disabled")
		return
	}

	c.Header("Content-Type", "application/gzip")
	c.Header("Content-Disposition", `attachment; filename="events.ndjson.gz"`)
	c.Status(http.StatusOK)

	n, err := h.store.Export(c.Request.Context(), c.Writer)
	if err != nil {
		// Headers are already sent; all that is left is to log it.
		_ = c.Error(err)
		h.logger.Warn("event export interrupted", zap.Int("records", n), zap.Error(err))
	}
}
