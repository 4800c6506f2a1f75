// Package handler provides HTTP handlers for member administration.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/reviewdesk/internal/access/middleware"
	"github.com/festy23/reviewdesk/internal/user/model"
	"github.com/festy23/reviewdesk/internal/user/service"
)

// Handler handles HTTP requests for member endpoints.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new member handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// List handles GET /members.
// @Summary List members
// @Tags Members
// @Produce json
// @Success 200 {object} model.ListMembersResponse
// @Router /members [get].
func (h *Handler) List(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, model.ListMembersResponse{Members: users})
}

// Create handles POST /members.
// @Summary Add a member
// @Tags Members
// @Accept json
// @Produce json
// @Param request body model.CreateMemberRequest true "Member"
// @Success 201 {object} model.MemberResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /members [post].
func (h *Handler) Create(c *gin.Context) {
	var req model.CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, "INVALID_REQUEST", "email, name and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, model.MemberResponse{Member: *user})
}

// ToggleActive handles POST /members/:id/toggle.
// @Summary Activate or deactivate a member
// @Tags Members
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} model.MemberResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /members/{id}/toggle [post].
func (h *Handler) ToggleActive(c *gin.Context) {
	actor, _ := middleware.MemberFrom(c)

	user, err := h.service.ToggleActive(c.Request.Context(), actor.UserID, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.MemberResponse{Member: *user})
}

// UpdateRole handles PUT /members/:id/role.
// @Summary Change a member's role
// @Tags Members
// @Accept json
// @Produce json
// @Param id path string true "Member ID"
// @Param request body model.UpdateRoleRequest true "Role"
// @Success 200 {object} model.MemberResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /members/{id}/role [put].
func (h *Handler) UpdateRole(c *gin.Context) {
	var req model.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, "INVALID_REQUEST", "role is required", http.StatusBadRequest)
		return
	}

	actor, _ := middleware.MemberFrom(c)
	user, err := h.service.UpdateRole(c.Request.Context(), actor.UserID, c.Param("id"), req.Role)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.MemberResponse{Member: *user})
}

// Delete handles DELETE /members/:id.
// @Summary Delete a member without review history
// @Tags Members
// @Param id path string true "Member ID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /members/{id} [delete].
func (h *Handler) Delete(c *gin.Context) {
	actor, _ := middleware.MemberFrom(c)

	if err := h.service.Delete(c.Request.Context(), actor.UserID, c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		notFoundResponse(c, "member not found")
	case errors.Is(err, model.ErrEmailTaken),
		errors.Is(err, model.ErrMemberInUse):
		errorResponse(c, "CONFLICT", err.Error(), http.StatusConflict)
	case errors.Is(err, model.ErrInvalidInput),
		errors.Is(err, model.ErrPasswordTooShort),
		errors.Is(err, model.ErrSelfModification):
		errorResponse(c, "INVALID_REQUEST", err.Error(), http.StatusBadRequest)
	default:
		h.logger.Errorw("member request failed", "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
	}
}
