// Package middleware provides HTTP middleware components.
package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"minimarket/internal/core/apperror"
	"minimarket/pkg/logger"
)

// Recovery turns a handler panic into a 500 JSON response. The panic unwinds
// past the error-translation middleware, so the response must be written
// here; the stack trace goes to the log only, never to the client.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"panic", r,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)

				if c.Writer.Written() {
					c.Abort()
					return
				}

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code":    apperror.CodeInternal,
					"message": "Internal server error",
					"details": map[string]any{
						"request_id": c.GetString("request_id"),
					},
				})
			}
		}()
		c.Next()
	}
}
