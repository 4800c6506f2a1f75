// Package health provides health check endpoint handler.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/reviewdesk/internal/database/database"
)

// QueueStats exposes the backlog of the email dispatch queue.
type QueueStats interface {
	Stats() (pending, capacity int)
}

// Handler handles health check requests.
type Handler struct {
	db     *gorm.DB
	queue  QueueStats
	logger *zap.SugaredLogger
}

// New creates a new health handler instance. queue may be nil.
func New(db *gorm.DB, queue QueueStats, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		db:     db,
		queue:  queue,
		logger: logger,
	}
}

// Response represents health check response.
type Response struct {
	Status   string       `json:"status"`
	Database string       `json:"database"`
	Dispatch *QueueStatus `json:"dispatch,omitempty"`
}

// QueueStatus is the email queue part of the health response.
type QueueStatus struct {
	Pending  int `json:"pending"`
	Capacity int `json:"capacity"`
}

// Check handles GET /health request. A full email queue is reported but
// does not make the service unhealthy.
func (h *Handler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp := Response{Status: "ok", Database: "ok"}
	if h.queue != nil {
		pending, capacity := h.queue.Stats()
		resp.Dispatch = &QueueStatus{Pending: pending, Capacity: capacity}
	}

	if err := database.HealthCheck(ctx, h.db); err != nil {
		h.logger.Warnw("health check failed", "error", err)
		resp.Status = "unhealthy"
		resp.Database = "unavailable"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	c.JSON(http.StatusOK, resp)
}
