// Package router provides email settings route registration.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/festy23/reviewdesk/internal/dispatch/handler"
)

// RegisterRoutes registers the admin email settings routes.
func RegisterRoutes(admins *gin.RouterGroup, h *handler.Handler) {
	settings := admins.Group("/settings/email")
	settings.GET("", h.GetSettings)
	settings.PUT("", h.SaveSettings)
	settings.POST("/test", h.SendTest)
	settings.GET("/usage", h.Usage)
}
