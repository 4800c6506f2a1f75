// Package middleware attaches the request principal and guards member routes.
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/reviewdesk/internal/access/model"
	"github.com/festy23/reviewdesk/internal/access/service"
)

const memberKey = "access.member"

// Authenticate resolves the session cookie into a Member. Requests without a
// valid session pass through anonymously; guards decide what that means.
func Authenticate(svc service.Service, logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(model.SessionCookie)
		if err != nil || sessionID == "" {
			c.Next()
			return
		}

		member, err := svc.Resolve(c.Request.Context(), sessionID)
		switch {
		case err == nil:
			SetMember(c, member)
		case errors.Is(err, model.ErrUnauthenticated):
		default:
			logger.Errorw("session lookup failed", "error", err)
		}
		c.Next()
	}
}

// RequireMember aborts with 401 unless a member is attached.
func RequireMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := MemberFrom(c); !ok {
			abort(c, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
			return
		}
		c.Next()
	}
}

// RequireAdmin aborts with 401 without a member and 403 for non-admins.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		member, ok := MemberFrom(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
			return
		}
		if !member.IsAdmin() {
			abort(c, http.StatusForbidden, "FORBIDDEN", "admin role required")
			return
		}
		c.Next()
	}
}

// SetMember attaches m to the request.
func SetMember(c *gin.Context, m model.Member) {
	c.Set(memberKey, m)
}

// MemberFrom returns the attached member, if any.
func MemberFrom(c *gin.Context) (model.Member, bool) {
	v, ok := c.Get(memberKey)
	if !ok {
		return model.Member{}, false
	}
	m, ok := v.(model.Member)
	return m, ok
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}
