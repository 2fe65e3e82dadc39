package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"minimarket/internal/infrastructure/metrics"
)

// Metrics middleware records request counts and latency per route.
func Metrics(collectors *metrics.Collectors) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = "undefined"
		}

		collectors.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status()),
		).Inc()
		collectors.HTTPRequestDuration.WithLabelValues(path).Observe(duration.Seconds())
	}
}
