// Package handler provides HTTP handlers for login, logout and first-run setup.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/reviewdesk/internal/access/middleware"
	"github.com/festy23/reviewdesk/internal/access/model"
	"github.com/festy23/reviewdesk/internal/access/service"
	userModel "github.com/festy23/reviewdesk/internal/user/model"
)

// SessionResponse is returned after login and setup.
type SessionResponse struct {
	Member    model.Member `json:"member"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// MeResponse wraps the current member.
type MeResponse struct {
	Member model.Member `json:"member"`
}

// Handler handles HTTP requests for session endpoints.
type Handler struct {
	service      service.Service
	cookieSecure bool
	logger       *zap.SugaredLogger
}

// New creates a new access handler instance.
func New(svc service.Service, cookieSecure bool, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, cookieSecure: cookieSecure, logger: logger}
}

// Login handles POST /auth/login.
// @Summary Log in with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body userModel.LoginRequest true "Credentials"
// @Success 200 {object} SessionResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post].
func (h *Handler) Login(c *gin.Context) {
	var req userModel.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, "INVALID_REQUEST", "email and password are required", http.StatusBadRequest)
		return
	}

	session, member, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, userModel.ErrInvalidCredentials) {
			errorResponse(c, "UNAUTHENTICATED", err.Error(), http.StatusUnauthorized)
			return
		}
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	SetSessionCookie(c, session, h.cookieSecure)
	c.JSON(http.StatusOK, SessionResponse{Member: member, ExpiresAt: session.ExpiresAt})
}

// Setup handles POST /setup. It only succeeds while no users exist.
// @Summary Create the first admin
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body userModel.CreateMemberRequest true "Admin account"
// @Success 201 {object} SessionResponse
// @Failure 409 {object} ErrorResponse
// @Router /setup [post].
func (h *Handler) Setup(c *gin.Context) {
	var req userModel.CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, "INVALID_REQUEST", "email, name and password are required", http.StatusBadRequest)
		return
	}

	session, member, err := h.service.Setup(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, userModel.ErrSetupCompleted):
			errorResponse(c, "CONFLICT", err.Error(), http.StatusConflict)
		case errors.Is(err, userModel.ErrInvalidInput), errors.Is(err, userModel.ErrPasswordTooShort):
			errorResponse(c, "INVALID_REQUEST", err.Error(), http.StatusBadRequest)
		default:
			errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		}
		return
	}

	SetSessionCookie(c, session, h.cookieSecure)
	c.JSON(http.StatusCreated, SessionResponse{Member: member, ExpiresAt: session.ExpiresAt})
}

// Logout handles POST /auth/logout.
// @Summary End the current session
// @Tags Auth
// @Success 204
// @Router /auth/logout [post].
func (h *Handler) Logout(c *gin.Context) {
	if sessionID, err := c.Cookie(model.SessionCookie); err == nil {
		if err := h.service.Logout(c.Request.Context(), sessionID); err != nil {
			h.logger.Errorw("failed to delete session", "error", err)
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(model.SessionCookie, "", -1, "/", "", h.cookieSecure, true)
	c.Status(http.StatusNoContent)
}

// Me handles GET /me.
// @Summary Current member
// @Tags Auth
// @Produce json
// @Success 200 {object} MeResponse
// @Failure 401 {object} ErrorResponse
// @Router /me [get].
func (h *Handler) Me(c *gin.Context) {
	member, ok := middleware.MemberFrom(c)
	if !ok {
		errorResponse(c, "UNAUTHENTICATED", "authentication required", http.StatusUnauthorized)
		return
	}
	c.JSON(http.StatusOK, MeResponse{Member: member})
}

// SetSessionCookie writes the session cookie expiring with the session.
func SetSessionCookie(c *gin.Context, session *model.Session, secure bool) {
	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(model.SessionCookie, session.ID, maxAge, "/", "", secure, true)
}
