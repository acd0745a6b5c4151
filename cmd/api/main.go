package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cookclip/internal/api"
	"cookclip/internal/api/handlers/health"
	"cookclip/internal/core/ai/openrouter"
	"cookclip/internal/core/ai/queue"
	"cookclip/internal/core/extraction"
	"cookclip/internal/core/grocery"
	"cookclip/internal/core/mealplan"
	"cookclip/internal/core/recipe"
	"cookclip/internal/infrastructure/cache"
	"cookclip/internal/infrastructure/config"
	"cookclip/internal/infrastructure/persistence/memory"
	"cookclip/internal/infrastructure/persistence/postgres"
	"cookclip/internal/infrastructure/persistence/redisstore"
	"cookclip/internal/pkg/common"

	"go.uber.org/zap"
)

// stores 啟動時選定的儲存實作
type stores struct {
	recipes  recipe.Store
	plans    mealplan.Store
	lists    grocery.ListStore
	checkers map[string]health.Checker
	closers  []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores 有 DATABASE_URL 時使用 PostgreSQL，否則退回記憶體儲存；Redis 啟用時包在前面
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	s := &stores{checkers: make(map[string]health.Checker)}

	if cfg.Database.URL != "" {
		db, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db.Close)
		if err := db.RunMigrations(ctx); err != nil {
			s.close()
			return nil, err
		}
		s.recipes = postgres.NewRecipeStore(db)
		s.plans = postgres.NewMealPlanStore(db)
		s.checkers["database"] = db.Ping
	} else {
		common.LogWarn("DATABASE_URL 未設定，使用記憶體儲存")
		s.recipes = memory.NewRecipeStore()
		s.plans = memory.NewMealPlanStore()
	}

	if !cfg.Redis.Enabled {
		s.lists = memory.NewGroceryListStore()
		return s, nil
	}

	client, err := redisstore.NewClient(ctx, cfg.Redis)
	if err != nil {
		s.close()
		return nil, err
	}
	s.closers = append(s.closers, func() {
		if err := client.Close(); err != nil {
			common.LogWarn("Failed to close redis client", zap.Error(err))
		}
	})
	s.recipes = redisstore.NewRecipeCache(client, s.recipes, cfg.Redis.RecipeTTL)
	s.lists = redisstore.NewGroceryListStore(client, cfg.Redis.ListTTL)
	s.checkers["redis"] = func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}

	return s, nil
}

func main() {
	// 載入設定
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("openrouter_model", cfg.OpenRouter.Model),
		zap.Bool("database", cfg.Database.URL != ""),
		zap.Bool("redis", cfg.Redis.Enabled),
	)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	st, err := openStores(startCtx, cfg)
	cancelStart()
	if err != nil {
		common.LogFatal("Failed to open stores", zap.Error(err))
	}
	defer st.close()

	// 縮圖查詢快取
	cacheManager := cache.NewManager(cfg.Cache)
	defer cacheManager.Close()

	// 所有推理呼叫共用同一個佇列
	ai := queue.NewManager(openrouter.NewClient(cfg.OpenRouter), cfg.Queue)
	defer ai.Close()

	pipeline := extraction.NewPipeline(
		st.recipes,
		extraction.NewTranscriptClient(cfg.Transcript),
		extraction.NewParser(ai),
		extraction.NewThumbnailResolver(cfg.ImageSearch, cacheManager),
	)
	merger := grocery.NewMerger(ai, cfg.Grocery)

	router := api.SetupRouter(cfg, api.Dependencies{
		Analyzer:     pipeline,
		Recipes:      st.recipes,
		MealPlans:    mealplan.NewOrchestrator(st.recipes, st.plans, ai, cfg.MealPlan),
		Merger:       merger,
		GroceryLists: grocery.NewLists(st.lists, st.recipes, st.plans, merger),
		Checkers:     st.checkers,
		Stats: map[string]health.StatsFunc{
			"thumbnail_cache": func() interface{} { return cacheManager.GetStats() },
			"reasoning_queue": func() interface{} { return ai.GetQueueStatus() },
		},
	})

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 進行中的抽取可能要等推理服務回應
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
		return
	}

	common.LogInfo("Server exited")
}
