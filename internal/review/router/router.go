// Package router provides review route registration.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/festy23/reviewdesk/internal/review/handler"
)

// RegisterRoutes registers the member review API and the public token routes.
func RegisterRoutes(public, members *gin.RouterGroup, h *handler.Handler) {
	reviews := members.Group("/reviews")
	{
		reviews.POST("", h.Create)
		reviews.GET("", h.List)
		reviews.GET("/:id", h.Get)
		reviews.PATCH("/:id", h.Update)
		reviews.DELETE("/:id", h.Delete)
		reviews.POST("/:id/notify", h.Notify)
		reviews.POST("/:id/remind", h.Remind)
		reviews.POST("/:id/approve", h.Approve)
		reviews.POST("/:id/reject", h.Reject)
		reviews.POST("/:id/resubmit", h.Resubmit)
		reviews.POST("/:id/comments", h.Comment)
		reviews.POST("/:id/lock", h.ToggleLock)
		reviews.POST("/:id/share", h.Share)
	}

	shared := public.Group("/p/:token")
	{
		shared.GET("", h.GetPublic)
		shared.POST("/approve", h.GuestApprove)
		shared.POST("/reject", h.GuestReject)
		shared.POST("/comment", h.GuestComment)
		shared.POST("/resubmit", h.GuestResubmit)
	}
}
