// Package handler provides HTTP handlers for review endpoints, both the
// member API and the public token pages.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/reviewdesk/internal/access/middleware"
	"github.com/festy23/reviewdesk/internal/review/model"
	"github.com/festy23/reviewdesk/internal/review/service"
)

// Handler handles HTTP requests for review endpoints.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new review handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Create handles POST /reviews.
// @Summary Create a review
// @Tags Reviews
// @Accept json
// @Produce json
// @Param request body model.CreateReviewRequest true "Request"
// @Success 201 {object} model.ReviewResponse
// @Failure 400 {object} ErrorResponse
// @Router /reviews [post].
func (h *Handler) Create(c *gin.Context) {
	var req model.CreateReviewRequest
	if !bindJSON(c, &req) {
		return
	}
	member, _ := middleware.MemberFrom(c)

	d, err := h.service.Create(c.Request.Context(), member, &req)
	if err != nil {
		serviceError(c, h.logger, "create review", err)
		return
	}
	c.JSON(http.StatusCreated, model.ReviewResponse{Review: d})
}

// List handles GET /reviews?filter=assigned|created&status=&search=.
// @Summary List my reviews
// @Tags Reviews
// @Produce json
// @Success 200 {object} model.ListReviewsResponse
// @Failure 400 {object} ErrorResponse
// @Router /reviews [get].
func (h *Handler) List(c *gin.Context) {
	member, _ := middleware.MemberFrom(c)
	filter := model.ListFilter{
		Filter: c.Query("filter"),
		Status: model.Status(c.Query("status")),
		Search: c.Query("search"),
	}

	reviews, err := h.service.List(c.Request.Context(), member, filter)
	if err != nil {
		serviceError(c, h.logger, "list reviews", err)
		return
	}
	c.JSON(http.StatusOK, model.ListReviewsResponse{Reviews: reviews})
}

// Get handles GET /reviews/:id.
// @Summary Get a review
// @Tags Reviews
// @Produce json
// @Param id path string true "Review ID"
// @Success 200 {object} model.ReviewResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /reviews/{id} [get].
func (h *Handler) Get(c *gin.Context) {
	member, _ := middleware.MemberFrom(c)

	d, err := h.service.Get(c.Request.Context(), member, c.Param("id"))
	if err != nil {
		serviceError(c, h.logger, "get review", err)
		return
	}
	c.JSON(http.StatusOK, model.ReviewResponse{Review: d})
}

// Update handles PATCH /reviews/:id.
// @Summary Edit a review
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Review ID"
// @Param request body model.UpdateReviewRequest true "Request"
// @Success 200 {object} model.ReviewResponse
// @Failure 423 {object} ErrorResponse
// @Router /reviews/{id} [patch].
func (h *Handler) Update(c *gin.Context) {
	var req model.UpdateReviewRequest
	if !bindJSON(c, &req) {
		return
	}
	member, _ := middleware.MemberFrom(c)

	d, err := h.service.Update(c.Request.Context(), member, c.Param("id"), &req)
	if err != nil {
		serviceError(c, h.logger, "update review", err)
		return
	}
	c.JSON(http.StatusOK, model.ReviewResponse{Review: d})
}

// Delete handles DELETE /reviews/:id.
// @Summary Delete a review
// @Tags Reviews
// @Param id path string true "Review ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Router /reviews/{id} [delete].
func (h *Handler) Delete(c *gin.Context) {
	member, _ := middleware.MemberFrom(c)

	if err := h.service.Delete(c.Request.Context(), member, c.Param("id")); err != nil {
		serviceError(c, h.logger, "delete review", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Notify handles POST /reviews/:id/notify.
// @Summary Send a draft to its reviewers
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Review ID"
// @Param request body model.NotifyRequest false "Request"
// @Success 200 {object} model.NotifyResponse
// @Failure 409 {object} ErrorResponse "ALREADY_SENT"
// @Router /reviews/{id}/notify [post].
func (h *Handler) Notify(c *gin.Context) {
	var req model.NotifyRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	member, _ := middleware.MemberFrom(c)

	queued, err := h.service.Notify(c.Request.Context(), member, c.Param("id"), &req)
	if err != nil {
		serviceError(c, h.logger, "notify reviewers", err)
		return
	}
	c.JSON(http.StatusOK, model.NotifyResponse{Queued: queued})
}

// Remind handles POST /reviews/:id/remind.
// @Summary Remind reviewers who have not decided
// @Tags Reviews
// @Produce json
// @Param id path string true "Review ID"
// @Success 200 {object} model.NotifyResponse
// @Router /reviews/{id}/remind [post].
func (h *Handler) Remind(c *gin.Context) {
	member, _ := middleware.MemberFrom(c)

	queued, err := h.service.Remind(c.Request.Context(), member, c.Param("id"))
	if err != nil {
		serviceError(c, h.logger, "send reminder", err)
		return
	}
	c.JSON(http.StatusOK, model.NotifyResponse{Queued: queued})
}

// Approve handles POST /reviews/:id/approve.
// @Summary Approve as an assignee
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Review ID"
// @Param request body model.VerdictRequest false "Request"
// @Success 200 {object} model.ReviewResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "INVALID_TRANSITION"
// @Failure 423 {object} ErrorResponse "LOCKED"
// @Router /reviews/{id}/approve [post].
func (h *Handler) Approve(c *gin.Context) {
	var req model.VerdictRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	member, _ := middleware.MemberFrom(c)

	d, err := h.service.Approve(c.Request.Context(), member, c.Param("id"), &req)
	if err != nil {
		serviceError(c, h.logger, "approve review", err)
		return
	}
	c.JSON(http.StatusOK, model.ReviewResponse{Review: d})
}

// Reject handles POST /reviews/:id/reject.
// @Summary Reject as an assignee
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Review ID"
// @Param request body model.VerdictRequest true "Request"
// @Success 200 {object} model.ReviewResponse
// @Failure 400 {object} ErrorResponse
// @Router /reviews/{id}/reject [post].
func (h *Handler) Reject(c *gin.Context) {
	var req model.VerdictRequest
	if !bindJSON(c, &req) {
		return
	}
	member, _ := middleware.MemberFrom(c)

	d, err := h.service.Reject(c.Request.Context(), member, c.Param("id"), &req)
	if err != nil {
		serviceError(c, h.logger, "reject review", err)
		return
	}
	c.JSON(http.StatusOK, model.ReviewResponse{Review: d})
}

// Resubmit handles POST /reviews/:id/resubmit.
// @Summary Resubmit a revised review
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Review ID"
// @Param request body model.ResubmitRequest true "Request"
// @Success 200 {object} model.ReviewResponse
// @Router /reviews/{id}/resubmit [post].
func (h *Handler) Resubmit(c *gin.Context) {
	var req model.ResubmitRequest
	if !bindJSON(c, &req) {
		return
	}
	member, _ := middleware.MemberFrom(c)

	d, err := h.service.Resubmit(c.Request.Context(), member, c.Param("id"), &req)
	if err != nil {
		serviceError(c, h.logger, "resubmit review", err)
		return
	}
	c.JSON(http.StatusOK, model.ReviewResponse{Review: d})
}

// Comment handles POST /reviews/:id/comments.
// @Summary Comment on a review
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Review ID"
// @Param request body model.CommentRequest true "Request"
// @Success 201 {object} model.ReviewResponse
// @Router /reviews/{id}/comments [post].
func (h *Handler) Comment(c *gin.Context) {
	var req model.CommentRequest
	if !bindJSON(c, &req) {
		return
	}
	member, _ := middleware.MemberFrom(c)

	d, err := h.service.Comment(c.Request.Context(), member, c.Param("id"), &req)
	if err != nil {
		serviceError(c, h.logger, "add comment", err)
		return
	}
	c.JSON(http.StatusCreated, model.ReviewResponse{Review: d})
}

// ToggleLock handles POST /reviews/:id/lock.
// @Summary Lock or unlock a review
// @Tags Reviews
// @Produce json
// @Param id path string true "Review ID"
// @Success 200 {object} model.ReviewResponse
// @Router /reviews/{id}/lock [post].
func (h *Handler) ToggleLock(c *gin.Context) {
	member, _ := middleware.MemberFrom(c)

	d, err := h.service.ToggleLock(c.Request.Context(), member, c.Param("id"))
	if err != nil {
		serviceError(c, h.logger, "toggle lock", err)
		return
	}
	c.JSON(http.StatusOK, model.ReviewResponse{Review: d})
}

// Share handles POST /reviews/:id/share.
// @Summary Get the public link of a review
// @Tags Reviews
// @Produce json
// @Param id path string true "Review ID"
// @Success 200 {object} model.ShareResponse
// @Router /reviews/{id}/share [post].
func (h *Handler) Share(c *gin.Context) {
	member, _ := middleware.MemberFrom(c)

	resp, err := h.service.Share(c.Request.Context(), member, c.Param("id"))
	if err != nil {
		serviceError(c, h.logger, "share review", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
