// Package router provides magic link route registration.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/festy23/reviewdesk/internal/magiclink/handler"
)

// RegisterRoutes registers the public magic link endpoint.
func RegisterRoutes(public *gin.RouterGroup, h *handler.Handler) {
	public.GET("/auth/magic/:token", h.Resolve)
}
