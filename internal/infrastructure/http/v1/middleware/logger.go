package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"minimarket/pkg/logger"
)

// Logger emits one log line per request, leveled by response status.
// Health probes and the metrics scrape are polled constantly, so they are
// left out of the log.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/metrics" || strings.HasPrefix(path, "/health") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		status := c.Writer.Status()

		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"query", c.Request.URL.RawQuery,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"bytes", c.Writer.Size(),
			"client_ip", c.ClientIP(),
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			fields = append(fields, "errors", errs)
		}

		entry := log.WithContext(c.Request.Context())
		switch {
		case status >= 500:
			entry.Errorw("http request", fields...)
		case status >= 400:
			entry.Warnw("http request", fields...)
		default:
			entry.Infow("http request", fields...)
		}
	}
}
