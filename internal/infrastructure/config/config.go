package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	OpenRouter  OpenRouterConfig  `mapstructure:"openrouter"`
	Queue       QueueConfig       `mapstructure:"queue"`
	Transcript  TranscriptConfig  `mapstructure:"transcript"`
	ImageSearch ImageSearchConfig `mapstructure:"image_search"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Cache       CacheConfig       `mapstructure:"cache"`
	MealPlan    MealPlanConfig    `mapstructure:"meal_plan"`
	Grocery     GroceryConfig     `mapstructure:"grocery"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	DedupWindow time.Duration     `mapstructure:"dedup_window"`
	LogLevel    string            `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// OpenRouterConfig 推理服務（OpenAI 相容）配置
type OpenRouterConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	Model      string        `mapstructure:"model"`
	MaxTokens  int           `mapstructure:"max_tokens"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// QueueConfig 推理服務呼叫佇列
type QueueConfig struct {
	Workers int `mapstructure:"workers"`
	MaxSize int `mapstructure:"max_size"`
}

// TranscriptConfig 逐字稿服務配置
type TranscriptConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ImageSearchConfig 縮圖搜尋配置
type ImageSearchConfig struct {
	AccessKey string        `mapstructure:"access_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// DatabaseConfig PostgreSQL 配置，URL 為空時使用記憶體儲存
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	RecipeTTL time.Duration `mapstructure:"recipe_ttl"`
	ListTTL   time.Duration `mapstructure:"list_ttl"`
}

// CacheConfig 行程內快取配置（縮圖搜尋結果）
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// MealPlanConfig 菜單生成配置
type MealPlanConfig struct {
	DraftTimeout    time.Duration `mapstructure:"draft_timeout"`
	OptimizeTimeout time.Duration `mapstructure:"optimize_timeout"`
	MaxDuration     int           `mapstructure:"max_duration"`
}

// GroceryConfig 購物清單配置
type GroceryConfig struct {
	SmartMergeTimeout time.Duration `mapstructure:"smart_merge_timeout"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// MetricsConfig 監控配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件，不存在時直接使用環境變數
	_ = godotenv.Load()

	v := viper.New()

	// 設定預設值
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	bindings := map[string]string{
		"openrouter.api_key":         "OPENROUTER_API_KEY",
		"openrouter.base_url":        "OPENROUTER_BASE_URL",
		"openrouter.model":           "OPENROUTER_MODEL",
		"openrouter.max_tokens":      "MODEL_MAX_TOKENS",
		"openrouter.max_retries":     "OPENROUTER_MAX_RETRIES",
		"queue.workers":              "AI_QUEUE_WORKERS",
		"queue.max_size":             "AI_QUEUE_MAX_SIZE",
		"transcript.api_key":         "SCRAPECREATORS_API_KEY",
		"transcript.base_url":        "SCRAPECREATORS_BASE_URL",
		"image_search.access_key":    "UNSPLASH_ACCESS_KEY",
		"image_search.base_url":      "UNSPLASH_BASE_URL",
		"database.url":               "DATABASE_URL",
		"redis.enabled":              "REDIS_ENABLED",
		"redis.addr":                 "REDIS_ADDR",
		"redis.password":             "REDIS_PASSWORD",
		"cache.enabled":              "CACHE_ENABLED",
		"meal_plan.draft_timeout":    "MEAL_PLAN_DRAFT_TIMEOUT",
		"meal_plan.optimize_timeout": "MEAL_PLAN_OPTIMIZE_TIMEOUT",
		"rate_limit.enabled":         "RATE_LIMIT_ENABLED",
		"rate_limit.requests":        "RATE_LIMIT_REQUESTS",
		"rate_limit.window":          "RATE_LIMIT_WINDOW",
		"server.port":                "PORT",
		"dedup_window":               "DEDUP_WINDOW",
		"log_level":                  "LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	// 可選的 config.yaml
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// logger 尚未初始化，改用 fmt.Println
	fmt.Println("Loading configuration", "openrouter_api_key:", maskAPIKey(v.GetString("openrouter.api_key")), "openrouter_model:", v.GetString("openrouter.model"))

	// 解析設定
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// maskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "cookclip")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "110s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	// 推理服務設定
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "openai/gpt-4o-mini")
	v.SetDefault("openrouter.max_tokens", 4000)
	v.SetDefault("openrouter.timeout", "60s")
	v.SetDefault("openrouter.max_retries", 0)
	v.SetDefault("queue.workers", 4)
	v.SetDefault("queue.max_size", 100)

	// 逐字稿服務設定
	v.SetDefault("transcript.base_url", "https://api.scrapecreators.com")
	v.SetDefault("transcript.timeout", "30s")

	// 縮圖搜尋設定
	v.SetDefault("image_search.base_url", "https://api.unsplash.com")
	v.SetDefault("image_search.timeout", "5s")

	// 資料庫設定
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Redis 設定
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.recipe_ttl", "24h")
	v.SetDefault("redis.list_ttl", "720h")

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// 菜單設定
	v.SetDefault("meal_plan.draft_timeout", "30s")
	v.SetDefault("meal_plan.optimize_timeout", "45s")
	v.SetDefault("meal_plan.max_duration", 30)

	// 購物清單設定
	v.SetDefault("grocery.smart_merge_timeout", "30s")

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	// 監控設定
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", config.Server.Port)
	}
	if config.Server.RequestTimeout <= 0 {
		return fmt.Errorf("invalid request timeout")
	}

	if config.OpenRouter.BaseURL == "" {
		return fmt.Errorf("openrouter base url is required")
	}
	if config.OpenRouter.MaxRetries < 0 {
		return fmt.Errorf("invalid openrouter max retries")
	}
	if config.Queue.Workers <= 0 || config.Queue.MaxSize <= 0 {
		return fmt.Errorf("invalid queue settings")
	}
	if config.Transcript.BaseURL == "" {
		return fmt.Errorf("transcript base url is required")
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	// 驗證菜單設定
	if config.MealPlan.DraftTimeout <= 0 || config.MealPlan.OptimizeTimeout <= 0 {
		return fmt.Errorf("invalid meal plan timeouts")
	}
	if config.MealPlan.MaxDuration < 1 {
		return fmt.Errorf("invalid meal plan max duration")
	}
	if config.Grocery.SmartMergeTimeout <= 0 {
		return fmt.Errorf("invalid smart merge timeout")
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit")
	}

	return nil
}
