// Package handler provides HTTP handlers for the notification inbox.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/reviewdesk/internal/access/middleware"
	"github.com/festy23/reviewdesk/internal/notification/model"
	"github.com/festy23/reviewdesk/internal/notification/service"
)

// Handler handles HTTP requests for notification endpoints.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new notification handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// List handles GET /notifications.
// @Summary List my notifications
// @Tags Notifications
// @Produce json
// @Success 200 {object} model.ListNotificationsResponse
// @Router /notifications [get].
func (h *Handler) List(c *gin.Context) {
	member, _ := middleware.MemberFrom(c)

	resp, err := h.service.List(c.Request.Context(), member.UserID)
	if err != nil {
		h.logger.Errorw("failed to list notifications", "user_id", member.UserID, "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MarkRead handles POST /notifications/:id/read.
// @Summary Mark a notification read
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 200 {object} model.NotificationResponse
// @Failure 404 {object} ErrorResponse
// @Router /notifications/{id}/read [post].
func (h *Handler) MarkRead(c *gin.Context) {
	member, _ := middleware.MemberFrom(c)

	n, err := h.service.MarkRead(c.Request.Context(), member.UserID, c.Param("id"))
	if err != nil {
		if errors.Is(err, model.ErrNotificationNotFound) {
			notFoundResponse(c, "notification not found")
			return
		}
		h.logger.Errorw("failed to mark notification read", "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, model.NotificationResponse{Notification: *n})
}
