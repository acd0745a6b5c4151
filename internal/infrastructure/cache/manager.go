package cache

import (
	"sync"
	"time"

	"cookclip/internal/infrastructure/config"
	"cookclip/internal/pkg/common"

	"go.uber.org/zap"
)

// CacheManager 行程內 TTL + LRU 快取
type CacheManager struct {
	config config.CacheConfig
	mu     sync.Mutex
	store  map[string]cacheEntry
	stats  cacheStats
	stop   chan struct{}
	once   sync.Once
}

// cacheEntry 緩存條目
type cacheEntry struct {
	value       string
	expiresAt   time.Time
	createdAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// cacheStats 緩存統計
type cacheStats struct {
	hits      int64
	misses    int64
	evictions int64
	errors    int64
}

// NewManager 創建新的緩存管理器，未啟用時返回 nil；nil 的 *CacheManager 可安全呼叫
func NewManager(cfg config.CacheConfig) *CacheManager {
	if !cfg.Enabled {
		common.LogInfo("Cache disabled")
		return nil
	}

	m := &CacheManager{
		config: cfg,
		store:  make(map[string]cacheEntry),
		stop:   make(chan struct{}),
	}

	// 啟動清理過期緩存的協程
	go m.startCleanup()

	common.LogInfo("快取管理員已初始化",
		zap.Int("最大容量", cfg.MaxSize),
		zap.Duration("存活時間", cfg.TTL),
		zap.Duration("清理間隔", cfg.CleanupInterval),
	)

	return m
}

// Get 獲取緩存值
func (m *CacheManager) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.store[key]
	if !exists {
		m.stats.misses++
		common.LogCacheMiss("memory", key)
		return "", false
	}

	// 檢查是否過期
	if time.Now().After(entry.expiresAt) {
		delete(m.store, key)
		m.stats.evictions++
		m.stats.misses++
		common.LogCacheMiss("memory", key)
		return "", false
	}

	// 更新訪問統計
	entry.lastAccess = time.Now()
	entry.accessCount++
	m.store[key] = entry
	m.stats.hits++

	common.LogCacheHit("memory", key)
	return entry.value, true
}

// Set 設置緩存值，容量已滿時先清理過期項目再淘汰最少使用的項目
func (m *CacheManager) Set(key, value string) {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.store[key]; !exists && len(m.store) >= m.config.MaxSize {
		if evicted := m.cleanup(); evicted > 0 {
			common.LogDebug("快取清理執行", zap.Int("清理數量", evicted))
		}
		for len(m.store) >= m.config.MaxSize {
			m.evictLRU()
		}
	}

	now := time.Now()
	m.store[key] = cacheEntry{
		value:      value,
		expiresAt:  now.Add(m.config.TTL),
		createdAt:  now,
		lastAccess: now,
	}
}

// Len 目前條目數
func (m *CacheManager) Len() int {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store)
}

// startCleanup 啟動清理過期緩存的協程
func (m *CacheManager) startCleanup() {
	ticker := time.NewTicker(m.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			m.cleanup()
			m.mu.Unlock()
		case <-m.stop:
			return
		}
	}
}

// cleanup 清理過期的緩存，呼叫端需持有鎖
func (m *CacheManager) cleanup() int {
	now := time.Now()
	count := 0

	for key, entry := range m.store {
		if now.After(entry.expiresAt) {
			delete(m.store, key)
			count++
			m.stats.evictions++
		}
	}

	if count > 0 {
		common.LogInfo("Cleaned up expired cache entries",
			zap.Int("count", count),
			zap.Int64("total_evictions", m.stats.evictions),
			zap.Int("remaining_size", len(m.store)),
		)
	}

	return count
}

// evictLRU 淘汰訪問次數最少、最久未訪問的項目
func (m *CacheManager) evictLRU() {
	var oldestKey string
	var oldestAccess time.Time
	var lowestAccessCount int

	for key, entry := range m.store {
		if oldestKey == "" ||
			entry.accessCount < lowestAccessCount ||
			(entry.accessCount == lowestAccessCount && entry.lastAccess.Before(oldestAccess)) {
			oldestKey = key
			oldestAccess = entry.lastAccess
			lowestAccessCount = entry.accessCount
		}
	}

	if oldestKey != "" {
		delete(m.store, oldestKey)
		m.stats.evictions++
		common.LogDebug("快取已淘汰(LRU)", zap.String("鍵", oldestKey))
	}
}

// GetStats 獲取緩存統計信息
func (m *CacheManager) GetStats() map[string]interface{} {
	if m == nil {
		return map[string]interface{}{"enabled": false}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ratio := 0.0
	if total := m.stats.hits + m.stats.misses; total > 0 {
		ratio = float64(m.stats.hits) / float64(total)
	}
	return map[string]interface{}{
		"enabled":   true,
		"size":      len(m.store),
		"max_size":  m.config.MaxSize,
		"hits":      m.stats.hits,
		"misses":    m.stats.misses,
		"evictions": m.stats.evictions,
		"hit_ratio": ratio,
	}
}

// Close 停止清理協程並清空緩存
func (m *CacheManager) Close() error {
	if m == nil {
		return nil
	}
	m.once.Do(func() { close(m.stop) })

	m.mu.Lock()
	defer m.mu.Unlock()

	m.store = make(map[string]cacheEntry)
	common.LogInfo("快取管理員已關閉",
		zap.Int64("命中次數", m.stats.hits),
		zap.Int64("未命中次數", m.stats.misses),
		zap.Int64("淘汰次數", m.stats.evictions),
	)
	return nil
}
