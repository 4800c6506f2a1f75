// Package router provides notification route registration.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/festy23/reviewdesk/internal/notification/handler"
)

// RegisterRoutes registers the inbox routes for members.
func RegisterRoutes(members *gin.RouterGroup, h *handler.Handler) {
	members.GET("/notifications", h.List)
	members.POST("/notifications/:id/read", h.MarkRead)
}
