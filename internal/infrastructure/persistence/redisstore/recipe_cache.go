package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"cookclip/internal/core/recipe"
	"cookclip/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RecipeCache 在食譜儲存前加一層 Redis 讀取快取。
// Redis 錯誤只記錄不返回，主儲存仍是唯一的真實來源。
type RecipeCache struct {
	client *redis.Client
	next   recipe.Store
	ttl    time.Duration
}

var _ recipe.Store = (*RecipeCache)(nil)

// NewRecipeCache 包裝 next
func NewRecipeCache(client *redis.Client, next recipe.Store, ttl time.Duration) *RecipeCache {
	return &RecipeCache{client: client, next: next, ttl: ttl}
}

func fingerprintKey(fp string) string { return "recipe:fp:" + fp }
func idKey(id string) string { return "recipe:id:" + id }

// GetByFingerprint 先查 Redis，未命中再查主儲存並回填
func (c *RecipeCache) GetByFingerprint(ctx context.Context, fingerprint string) (*recipe.Recipe, error) {
	if r, ok := c.get(ctx, fingerprintKey(fingerprint)); ok {
		return r, nil
	}
	r, err := c.next.GetByFingerprint(ctx, fingerprint)
	if err != nil {
		return nil, err
	}
	c.set(ctx, r)
	return r, nil
}

// GetByID 先查 Redis，未命中再查主儲存並回填
func (c *RecipeCache) GetByID(ctx context.Context, id string) (*recipe.Recipe, error) {
	if r, ok := c.get(ctx, idKey(id)); ok {
		return r, nil
	}
	r, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, r)
	return r, nil
}

func (c *RecipeCache) GetByIDs(ctx context.Context, ids []string) ([]*recipe.Recipe, error) {
	return c.next.GetByIDs(ctx, ids)
}

// Put 寫入主儲存，成功後回填快取
func (c *RecipeCache) Put(ctx context.Context, r *recipe.Recipe) (*recipe.Recipe, error) {
	saved, err := c.next.Put(ctx, r)
	if err != nil {
		return nil, err
	}
	c.set(ctx, saved)
	return saved, nil
}

func (c *RecipeCache) get(ctx context.Context, key string) (*recipe.Recipe, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			common.LogWarn("Redis 讀取失敗", zap.String("key", key), zap.Error(err))
		} else {
			common.LogCacheMiss("recipe", key)
		}
		return nil, false
	}

	var r recipe.Recipe
	if err := json.Unmarshal(data, &r); err != nil {
		common.LogWarn("Redis 快取資料無法解析", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	common.LogCacheHit("recipe", key)
	return &r, true
}

func (c *RecipeCache) set(ctx context.Context, r *recipe.Recipe) {
	data, err := json.Marshal(r)
	if err != nil {
		common.LogWarn("食譜序列化失敗", zap.String("recipe_id", r.ID), zap.Error(err))
		return
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, fingerprintKey(r.Fingerprint), data, c.ttl)
	pipe.Set(ctx, idKey(r.ID), data, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		common.LogWarn("Redis 寫入失敗", zap.String("recipe_id", r.ID), zap.Error(err))
	}
}
