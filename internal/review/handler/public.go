package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/festy23/reviewdesk/internal/review/model"
)

// GetPublic handles GET /p/:token.
// @Summary Public view of a shared review
// @Tags Public
// @Produce json
// @Param token path string true "Public token"
// @Success 200 {object} model.ReviewResponse
// @Failure 404 {object} ErrorResponse
// @Router /p/{token} [get].
func (h *Handler) GetPublic(c *gin.Context) {
	d, err := h.service.GetPublic(c.Request.Context(), c.Param("token"))
	if err != nil {
		serviceError(c, h.logger, "get public review", err)
		return
	}
	c.JSON(http.StatusOK, model.ReviewResponse{Review: d})
}

// GuestApprove handles POST /p/:token/approve.
// @Summary Approve through the public link
// @Tags Public
// @Accept json
// @Produce json
// @Param token path string true "Public token"
// @Param request body model.GuestVerdictRequest true "Request"
// @Success 200 {object} model.ReviewResponse
// @Router /p/{token}/approve [post].
func (h *Handler) GuestApprove(c *gin.Context) {
	var req model.GuestVerdictRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.service.GuestApprove(c.Request.Context(), c.Param("token"), &req)
	if err != nil {
		serviceError(c, h.logger, "approve public review", err)
		return
	}
	c.JSON(http.StatusOK, model.ReviewResponse{Review: d})
}

// GuestReject handles POST /p/:token/reject.
// @Summary Reject through the public link
// @Tags Public
// @Accept json
// @Produce json
// @Param token path string true "Public token"
// @Param request body model.GuestVerdictRequest true "Request"
// @Success 200 {object} model.ReviewResponse
// @Router /p/{token}/reject [post].
func (h *Handler) GuestReject(c *gin.Context) {
	var req model.GuestVerdictRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.service.GuestReject(c.Request.Context(), c.Param("token"), &req)
	if err != nil {
		serviceError(c, h.logger, "reject public review", err)
		return
	}
	c.JSON(http.StatusOK, model.ReviewResponse{Review: d})
}

// GuestComment handles POST /p/:token/comment.
// @Summary Comment through the public link
// @Tags Public
// @Accept json
// @Produce json
// @Param token path string true "Public token"
// @Param request body model.CommentRequest true "Request"
// @Success 201 {object} model.ReviewResponse
// @Router /p/{token}/comment [post].
func (h *Handler) GuestComment(c *gin.Context) {
	var req model.CommentRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.service.GuestComment(c.Request.Context(), c.Param("token"), &req)
	if err != nil {
		serviceError(c, h.logger, "comment on public review", err)
		return
	}
	c.JSON(http.StatusCreated, model.ReviewResponse{Review: d})
}

// GuestResubmit handles POST /p/:token/resubmit.
// @Summary Resubmit through the public link
// @Tags Public
// @Accept json
// @Produce json
// @Param token path string true "Public token"
// @Param request body model.ResubmitRequest true "Request"
// @Success 200 {object} model.ReviewResponse
// @Router /p/{token}/resubmit [post].
func (h *Handler) GuestResubmit(c *gin.Context) {
	var req model.ResubmitRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.service.GuestResubmit(c.Request.Context(), c.Param("token"), &req)
	if err != nil {
		serviceError(c, h.logger, "resubmit public review", err)
		return
	}
	c.JSON(http.StatusOK, model.ReviewResponse{Review: d})
}
