package redisstore

import (
	"context"
	"fmt"
	"time"

	"cookclip/internal/infrastructure/config"
	"cookclip/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// NewClient 創建 Redis 客戶端並測試連接
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	common.LogInfo("Redis 連線成功", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return client, nil
}
