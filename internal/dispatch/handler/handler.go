// Package handler provides admin HTTP handlers for outbound email.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/reviewdesk/internal/dispatch/model"
	"github.com/festy23/reviewdesk/internal/dispatch/service"
)

// Handler handles HTTP requests for email settings endpoints.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new email settings handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// GetSettings handles GET /settings/email.
// @Summary Active SMTP account
// @Tags Settings
// @Produce json
// @Success 200 {object} model.SettingsResponse
// @Router /settings/email [get].
func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.service.GetSettings(c.Request.Context())
	if err != nil {
		if errors.Is(err, model.ErrSettingsNotFound) {
			c.JSON(http.StatusOK, model.SettingsResponse{})
			return
		}
		h.logger.Errorw("failed to load email settings", "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, model.SettingsResponse{Settings: settings})
}

// SaveSettings handles PUT /settings/email.
// @Summary Replace the SMTP account
// @Tags Settings
// @Accept json
// @Produce json
// @Param request body model.SaveSettingsRequest true "SMTP account"
// @Success 200 {object} model.SettingsResponse
// @Failure 400 {object} ErrorResponse
// @Router /settings/email [put].
func (h *Handler) SaveSettings(c *gin.Context) {
	var req model.SaveSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, "INVALID_REQUEST", "smtp_host, smtp_port, email_address and app_password are required",
			http.StatusBadRequest)
		return
	}

	settings, err := h.service.SaveSettings(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SettingsResponse{Settings: settings})
}

// SendTest handles POST /settings/email/test.
// @Summary Send a test email
// @Tags Settings
// @Accept json
// @Produce json
// @Param request body model.TestEmailRequest true "Recipient"
// @Success 200 {object} model.TestEmailResponse
// @Failure 400 {object} ErrorResponse
// @Router /settings/email/test [post].
func (h *Handler) SendTest(c *gin.Context) {
	var req model.TestEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, "INVALID_REQUEST", "to is required", http.StatusBadRequest)
		return
	}

	sent, err := h.service.SendTest(c.Request.Context(), req.To)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.TestEmailResponse{Sent: sent})
}

// Usage handles GET /settings/email/usage.
// @Summary Email usage this month
// @Tags Settings
// @Produce json
// @Success 200 {object} emailusageModel.Usage
// @Router /settings/email/usage [get].
func (h *Handler) Usage(c *gin.Context) {
	usage, err := h.service.Usage(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to load email usage", "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, usage)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	if errors.Is(err, model.ErrInvalidSettings) {
		errorResponse(c, "INVALID_REQUEST", err.Error(), http.StatusBadRequest)
		return
	}
	h.logger.Errorw("email settings request failed", "error", err)
	errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
}
