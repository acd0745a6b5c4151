package api

import (
	"time"

	groceryHandler "cookclip/internal/api/handlers/grocery"
	"cookclip/internal/api/handlers/health"
	mealPlanHandler "cookclip/internal/api/handlers/mealplan"
	recipeHandler "cookclip/internal/api/handlers/recipe"
	"cookclip/internal/api/middleware"
	"cookclip/internal/core/grocery"
	"cookclip/internal/infrastructure/config"
	"cookclip/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// toggleRoute 勾選切換可在去重時間窗內重複送出
const toggleRoute = "/api/v1/grocery/lists/:listId/items/:itemId/toggle"

// Dependencies 路由需要的服務
type Dependencies struct {
	Analyzer     recipeHandler.Analyzer
	Recipes      recipeHandler.Getter
	MealPlans    mealPlanHandler.Service
	Merger       grocery.SmartMerger
	GroceryLists groceryHandler.Lists
	Checkers     map[string]health.Checker
	Stats        map[string]health.StatsFunc
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New())
	if cfg.Metrics.Enabled {
		router.Use(middleware.Metrics())
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	if cfg.Server.MaxBodyBytes > 0 {
		router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	}

	// 健康檢查與監控不受限流影響
	healthHandler := health.NewHandler(cfg.App.Version, deps.Checkers, deps.Stats)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	if cfg.DedupWindow > 0 {
		api.Use(middleware.Deduplication(cfg, toggleRoute))
	}
	if cfg.Server.RequestTimeout > 0 {
		api.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	}

	recipes := recipeHandler.NewHandler(deps.Analyzer, deps.Recipes)
	api.POST("/analyze", recipes.HandleAnalyze)
	api.GET("/recipes/:id", recipes.HandleGet)

	plans := mealPlanHandler.NewHandler(deps.MealPlans)
	planGroup := api.Group("/meal-plans")
	{
		planGroup.POST("/generate", plans.HandleGenerate)
		planGroup.GET("/:id", plans.HandleGet)
		planGroup.DELETE("/:id", plans.HandleDelete)
		planGroup.PUT("/:id/days/:day/:meal", plans.HandleSetMeal)
		planGroup.DELETE("/:id/days/:day/:meal", plans.HandleRemoveMeal)
	}

	groceries := groceryHandler.NewHandler(deps.Merger, deps.GroceryLists)
	groceryGroup := api.Group("/grocery")
	{
		groceryGroup.POST("/smart-merge", groceries.HandleSmartMerge)

		lists := groceryGroup.Group("/lists/:listId")
		lists.GET("", groceries.HandleGetList)
		lists.DELETE("", groceries.HandleClearAll)
		lists.POST("/recipes", groceries.HandleAddRecipes)
		lists.POST("/meal-plans/:planId", groceries.HandleAddMealPlan)
		lists.POST("/smart-merge", groceries.HandleListSmartMerge)
		lists.POST("/items/:itemId/toggle", groceries.HandleToggle)
		lists.DELETE("/items/:itemId", groceries.HandleRemove)
		lists.DELETE("/checked", groceries.HandleClearChecked)
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Bool("metrics", cfg.Metrics.Enabled),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router
}
