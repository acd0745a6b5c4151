package health

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"cookclip/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Checker 依賴檢查，例如資料庫或 Redis 的 ping
type Checker func(ctx context.Context) error

// StatsFunc 回傳元件的即時狀態，例如快取命中率或佇列長度
type StatsFunc func() interface{}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status     string                 `json:"status"`
	Timestamp  time.Time              `json:"timestamp"`
	Version    string                 `json:"version"`
	Runtime    map[string]interface{} `json:"runtime"`
	Components map[string]interface{} `json:"components,omitempty"`
}

// Handler 健康檢查處理程序
type Handler struct {
	version  string
	checkers map[string]Checker
	stats    map[string]StatsFunc
	timeout  time.Duration
}

// NewHandler checkers 與 stats 可為 nil
func NewHandler(version string, checkers map[string]Checker, stats map[string]StatsFunc) *Handler {
	if checkers == nil {
		checkers = map[string]Checker{}
	}
	return &Handler{version: version, checkers: checkers, stats: stats, timeout: 2 * time.Second}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var components map[string]interface{}
	if len(h.stats) > 0 {
		components = make(map[string]interface{}, len(h.stats))
		for name, fn := range h.stats {
			components[name] = fn()
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
		Components: components,
	})
}

// ReadinessCheck 逐一執行依賴檢查，任一失敗返回 503
func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	checks := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checkers[name](ctx); err != nil {
			common.LogWarn("就緒檢查失敗", zap.String("check", name), zap.Error(err))
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	c.JSON(status, gin.H{
		"status": state,
		"checks": checks,
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
