package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cookclip/internal/infrastructure/config"
	"cookclip/internal/pkg/common"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// uniqueViolation Postgres unique_violation
const uniqueViolation = "23505"

// DB 連線池封裝
type DB struct {
	Pool *pgxpool.Pool
}

// Connect 建立連線池並確認可連線
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	common.LogInfo("資料庫連線成功",
		zap.Int32("max_conns", cfg.MaxConns),
		zap.Int32("min_conns", cfg.MinConns),
	)
	return &DB{Pool: pool}, nil
}

// Close 關閉連線池
func (db *DB) Close() {
	db.Pool.Close()
}

// Ping 供就緒檢查使用
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

type migration struct {
	version int
	sql     string
}

// migrations 依版本順序執行
var migrations = []migration{
	{1, migration001},
	{2, migration002},
}

// RunMigrations 執行尚未套用的遷移
func (db *DB) RunMigrations(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists bool
		err := db.Pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)",
			m.version,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check migration %d: %w", m.version, err)
		}
		if exists {
			continue
		}

		common.LogInfo("套用資料庫遷移", zap.Int("version", m.version))
		if _, err := db.Pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", m.version, err)
		}

		_, err = db.Pool.Exec(ctx,
			"INSERT INTO schema_migrations (version) VALUES ($1)",
			m.version,
		)
		if err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

const migration001 = `
CREATE TABLE IF NOT EXISTS recipes (
    id UUID PRIMARY KEY,
    url TEXT NOT NULL,
    url_hash VARCHAR(16) NOT NULL,
    platform VARCHAR(16) NOT NULL,
    title TEXT NOT NULL,
    thumbnail_url TEXT NOT NULL DEFAULT '',
    servings INT NOT NULL,
    ingredients JSONB NOT NULL,
    steps JSONB NOT NULL,
    nutrition JSONB,
    cook_time_minutes INT,
    difficulty VARCHAR(16) NOT NULL DEFAULT '',
    is_vegetarian BOOLEAN NOT NULL DEFAULT FALSE,
    is_vegan BOOLEAN NOT NULL DEFAULT FALSE,
    is_gluten_free BOOLEAN NOT NULL DEFAULT FALSE,
    category VARCHAR(32) NOT NULL DEFAULT 'Main Course',
    raw_transcript TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT unique_recipe_url_hash UNIQUE (url_hash)
);

CREATE INDEX IF NOT EXISTS idx_recipes_created ON recipes(created_at DESC);
`

const migration002 = `
CREATE TABLE IF NOT EXISTS meal_plans (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    duration INT NOT NULL CHECK (duration > 0),
    days JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
