// Package router provides session route registration.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/festy23/reviewdesk/internal/access/handler"
)

// RegisterRoutes registers login, logout, setup and the current-member route.
func RegisterRoutes(public, members *gin.RouterGroup, h *handler.Handler) {
	public.POST("/setup", h.Setup)
	public.POST("/auth/login", h.Login)
	public.POST("/auth/logout", h.Logout)

	members.GET("/me", h.Me)
}
