package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cookclip/internal/core/grocery"

	"github.com/go-redis/redis/v8"
)

// GroceryListStore 每份購物清單以一個 JSON 值保存
type GroceryListStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ grocery.ListStore = (*GroceryListStore)(nil)

// NewGroceryListStore ttl 為 0 時不過期
func NewGroceryListStore(client *redis.Client, ttl time.Duration) *GroceryListStore {
	return &GroceryListStore{client: client, ttl: ttl}
}

func listKey(listID string) string {
	return "grocery:list:" + listID
}

// Load 清單不存在時返回空清單
func (s *GroceryListStore) Load(ctx context.Context, listID string) ([]grocery.Item, error) {
	data, err := s.client.Get(ctx, listKey(listID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return []grocery.Item{}, nil
		}
		return nil, fmt.Errorf("failed to load grocery list: %w", err)
	}

	var items []grocery.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal grocery list: %w", err)
	}
	return items, nil
}

// Save 覆蓋整份清單並刷新 TTL
func (s *GroceryListStore) Save(ctx context.Context, listID string, items []grocery.Item) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal grocery list: %w", err)
	}
	if err := s.client.Set(ctx, listKey(listID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save grocery list: %w", err)
	}
	return nil
}

func (s *GroceryListStore) Delete(ctx context.Context, listID string) error {
	return s.client.Del(ctx, listKey(listID)).Err()
}
