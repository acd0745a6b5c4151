package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"cookclip/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Timeout 為請求加上截止時間；處理器尚未寫出響應時返回 504
func Timeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.Duration("timeout", timeout),
			)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, common.ErrorResponse{
				Error:   common.ErrCodeGatewayTimeout,
				Message: "request timed out after " + timeout.String(),
			})
		}
	}
}
