package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"cookclip/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter 限流器結構
type RateLimiter struct {
	mu       sync.Mutex
	tokens   float64
	capacity int
	rate     float64
	lastTime time.Time
}

// NewRateLimiter 創建新的限流器
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:   float64(requests),
		capacity: requests,
		rate:     float64(requests) / window.Seconds(),
		lastTime: time.Now(),
	}
}

// Allow 檢查是否允許請求
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastTime).Seconds()
	rl.lastTime = now

	// 按經過時間補充令牌，可為小數
	rl.tokens = min(float64(rl.capacity), rl.tokens+elapsed*rl.rate)

	// 檢查是否有可用令牌
	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}

	return false
}

// RateLimit 限流中間件
func RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	limiter := NewRateLimiter(requests, window)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			common.LogInfo("Rate limit exceeded",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)

			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrorResponse{
				Error:   common.ErrCodeTooManyRequests,
				Message: "too many requests",
			})
			return
		}

		c.Next()
	}
}
