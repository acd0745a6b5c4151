package middleware

import (
	"strconv"
	"time"

	"cookclip/internal/infrastructure/monitoring"

	"github.com/gin-gonic/gin"
)

// Metrics 記錄請求數與耗時；path 使用路由樣板，未匹配的路由歸為 "unmatched"
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		monitoring.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		monitoring.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
