// Package middleware provides HTTP middleware functions.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger returns a middleware that logs HTTP requests. It logs the route
// pattern instead of the raw path: public and magic-link paths carry bearer
// tokens, and query strings are dropped for the same reason.
func Logger(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		fields := []interface{}{
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"route", route,
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		}
		if id := GetRequestID(c); id != "" {
			fields = append(fields, "request_id", id)
		}
		if c.Writer.Size() > 0 {
			fields = append(fields, "size", c.Writer.Size())
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			logger.Errorw("HTTP request", fields...)
		case status >= 400:
			logger.Warnw("HTTP request", fields...)
		default:
			logger.Infow("HTTP request", fields...)
		}
	}
}
