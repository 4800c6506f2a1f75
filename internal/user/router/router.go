// Package router provides member administration routes registration.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/festy23/reviewdesk/internal/user/handler"
)

// RegisterRoutes registers member routes on the admin-only group.
func RegisterRoutes(admins *gin.RouterGroup, h *handler.Handler) {
	admins.GET("/members", h.List)
	admins.POST("/members", h.Create)
	admins.POST("/members/:id/toggle", h.ToggleActive)
	admins.PUT("/members/:id/role", h.UpdateRole)
	admins.DELETE("/members/:id", h.Delete)
}
