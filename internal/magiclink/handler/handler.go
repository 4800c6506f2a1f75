// Package handler provides the HTTP entry point for magic links.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	accessHandler "github.com/festy23/reviewdesk/internal/access/handler"
	accessModel "github.com/festy23/reviewdesk/internal/access/model"
	"github.com/festy23/reviewdesk/internal/magiclink/model"
	"github.com/festy23/reviewdesk/internal/magiclink/service"
)

// InvalidLinkPath is where a failed resolution lands.
const InvalidLinkPath = "/?error=invalid_link"

// Handler handles HTTP requests for magic links.
type Handler struct {
	service      service.Service
	cookieSecure bool
	logger       *zap.SugaredLogger
}

// New creates a new magic link handler instance.
func New(svc service.Service, cookieSecure bool, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, cookieSecure: cookieSecure, logger: logger}
}

// Resolve handles GET /auth/magic/:token.
// @Summary Log in through a magic link
// @Tags Auth
// @Param token path string true "Magic link token"
// @Success 302
// @Router /auth/magic/{token} [get].
func (h *Handler) Resolve(c *gin.Context) {
	res, err := h.service.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		if !errors.Is(err, model.ErrInvalidLink) {
			h.logger.Errorw("magic link resolution failed", "error", err)
		}
		c.Redirect(http.StatusFound, InvalidLinkPath)
		return
	}

	accessHandler.SetSessionCookie(c, &accessModel.Session{
		ID:        res.SessionID,
		UserID:    res.UserID,
		ExpiresAt: res.SessionExpiresAt,
	}, h.cookieSecure)
	c.Redirect(http.StatusFound, res.RedirectPath())
}
