package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cookclip/internal/infrastructure/config"
	"cookclip/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func resetDedup() {
	requestCache.Lock()
	requestCache.requests = make(map[string]time.Time)
	requestCache.Unlock()
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp common.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestRateLimiterRefillsFractionalTokens(t *testing.T) {
	rl := NewRateLimiter(1, 200*time.Millisecond)

	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())

	// 0.6 個令牌不足以放行，但會累積
	rl.lastTime = time.Now().Add(-120 * time.Millisecond)
	assert.False(t, rl.Allow())

	rl.lastTime = time.Now().Add(-120 * time.Millisecond)
	assert.True(t, rl.Allow())
}

func TestRateLimiterCapsAtCapacity(t *testing.T) {
	rl := NewRateLimiter(2, time.Second)
	rl.lastTime = time.Now().Add(-time.Hour)

	assert.True(t, rl.Allow())
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(1, time.Minute))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ping", "").Code)

	w := serve(r, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, common.ErrCodeTooManyRequests, errorCode(t, w))
}

func TestDeduplication(t *testing.T) {
	resetDedup()
	r := gin.New()
	r.Use(Deduplication(&config.Config{DedupWindow: time.Minute}, "/dedup/items/:id/toggle"))
	handler := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.POST("/dedup/submit", handler)
	r.POST("/dedup/items/:id/toggle", handler)
	r.GET("/dedup/submit", handler)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/dedup/submit", `{"a":1}`).Code)

	w := serve(r, http.MethodPost, "/dedup/submit", `{"a":1}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, common.ErrCodeTooManyRequests, errorCode(t, w))

	// 不同內容、GET 與豁免路由不受影響
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/dedup/submit", `{"a":2}`).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/dedup/submit", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/dedup/submit", "").Code)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/dedup/items/1/toggle", "").Code)
	}
}

func TestDeduplicationKeepsBodyForHandler(t *testing.T) {
	resetDedup()
	r := gin.New()
	r.Use(Deduplication(&config.Config{DedupWindow: time.Minute}))
	r.POST("/dedup/echo", func(c *gin.Context) {
		var body map[string]string
		require.NoError(t, c.ShouldBindJSON(&body))
		c.JSON(http.StatusOK, body)
	})

	w := serve(r, http.MethodPost, "/dedup/echo", `{"name":"garlic"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"garlic"}`, w.Body.String())
}

func TestTimeoutReturns504WhenNothingWritten(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(20 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})

	w := serve(r, http.MethodGet, "/slow", "")
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, common.ErrCodeGatewayTimeout, errorCode(t, w))
}

func TestTimeoutKeepsWrittenResponse(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(20 * time.Millisecond))
	r.GET("/fast", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/late", func(c *gin.Context) {
		<-c.Request.Context().Done()
		c.JSON(http.StatusBadGateway, common.ErrorResponse{Error: common.ErrCodeUpstreamFetch})
	})

	w := serve(r, http.MethodGet, "/fast", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodGet, "/late", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, common.ErrCodeUpstreamFetch, errorCode(t, w))
}
