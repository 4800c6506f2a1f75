// Package handler provides the HTTP handler for the member dashboard.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/reviewdesk/internal/access/middleware"
	"github.com/festy23/reviewdesk/internal/dashboard/service"
)

// Handler handles HTTP requests for the dashboard.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new dashboard handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Get handles GET /dashboard.
// @Summary Get my dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} model.DashboardResponse
// @Failure 500 {object} ErrorResponse
// @Router /dashboard [get].
func (h *Handler) Get(c *gin.Context) {
	member, _ := middleware.MemberFrom(c)

	resp, err := h.service.Get(c.Request.Context(), member.UserID)
	if err != nil {
		h.logger.Errorw("error getting dashboard", "user_id", member.UserID, "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, resp)
}
