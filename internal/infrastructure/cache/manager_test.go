package cache

import (
	"testing"
	"time"

	"cookclip/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
)

func testConfig(size int, ttl time.Duration) config.CacheConfig {
	return config.CacheConfig{Enabled: true, MaxSize: size, TTL: ttl, CleanupInterval: time.Hour}
}

func TestManagerSetGet(t *testing.T) {
	m := NewManager(testConfig(10, time.Minute))
	defer m.Close()

	_, ok := m.Get("food pasta")
	assert.False(t, ok)

	m.Set("food pasta", "https://img/1")
	v, ok := m.Get("food pasta")
	assert.True(t, ok)
	assert.Equal(t, "https://img/1", v)
	assert.Equal(t, int64(1), m.GetStats()["hits"])
}

func TestManagerExpiry(t *testing.T) {
	m := NewManager(testConfig(10, 10*time.Millisecond))
	defer m.Close()

	m.Set("k", "v")
	time.Sleep(20 * time.Millisecond)
	_, ok := m.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestManagerEvictsLeastUsed(t *testing.T) {
	m := NewManager(testConfig(2, time.Minute))
	defer m.Close()

	m.Set("a", "1")
	m.Set("b", "2")
	_, _ = m.Get("a")
	m.Set("c", "3")

	assert.Equal(t, 2, m.Len())
	_, ok := m.Get("b")
	assert.False(t, ok)
	_, ok = m.Get("a")
	assert.True(t, ok)
}

func TestNilManagerIsSafe(t *testing.T) {
	m := NewManager(config.CacheConfig{Enabled: false})
	assert.Nil(t, m)

	m.Set("k", "v")
	_, ok := m.Get("k")
	assert.False(t, ok)
	assert.NoError(t, m.Close())
}
