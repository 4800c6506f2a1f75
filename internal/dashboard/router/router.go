// Package router provides dashboard route registration.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/festy23/reviewdesk/internal/dashboard/handler"
)

// RegisterRoutes registers the dashboard route for members.
func RegisterRoutes(members *gin.RouterGroup, h *handler.Handler) {
	members.GET("/dashboard", h.Get)
}
