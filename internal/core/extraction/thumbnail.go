package extraction

import (
	"context"
	"fmt"
	"strings"

	"cookclip/internal/core/recipe"
	"cookclip/internal/infrastructure/cache"
	"cookclip/internal/infrastructure/config"
	"cookclip/internal/infrastructure/monitoring"
	"cookclip/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ThumbnailFinder 為食譜挑選縮圖，永遠返回可用的 URL
type ThumbnailFinder interface {
	Resolve(ctx context.Context, title string, category recipe.Category, query string) string
}

func unsplashPhoto(id string) string {
	return fmt.Sprintf("https://images.unsplash.com/photo-%s?q=80&w=800&auto=format&fit=crop", id)
}

// categoryFallbacks 每個分類的預設縮圖
var categoryFallbacks = map[recipe.Category]string{
	recipe.CategoryPasta:      unsplashPhoto("1473093226795-af9932fe5856"),
	recipe.CategorySalad:      unsplashPhoto("1512621776951-a57141f2eefd"),
	recipe.CategorySoup:       unsplashPhoto("1547592166-23ac45744acd"),
	recipe.CategoryDessert:    unsplashPhoto("1563729784474-d77dbb933a9e"),
	recipe.CategoryMeat:       unsplashPhoto("1432139555190-58524dae6a55"),
	recipe.CategorySeafood:    unsplashPhoto("1519708227418-c8fd9a32b7a2"),
	recipe.CategoryBreakfast:  unsplashPhoto("1482049016688-2d3e1b311543"),
	recipe.CategoryDrink:      unsplashPhoto("1544145945-f904253d0c7e"),
	recipe.CategoryMainCourse: unsplashPhoto("1504674900247-0877df9cc836"),
	recipe.CategoryAppetizer:  unsplashPhoto("1541014741259-df5290ce50ca"),
	recipe.CategorySnack:      unsplashPhoto("1599490659223-ef52b4bc8c93"),
	recipe.CategoryBread:      unsplashPhoto("1509440159596-0249088772ff"),
	recipe.CategoryVegetarian: unsplashPhoto("1540914124281-342729f3aa3f"),
}

// FallbackThumbnail 返回分類預設縮圖，未知分類使用 Main Course
func FallbackThumbnail(category recipe.Category) string {
	if url, ok := categoryFallbacks[category]; ok {
		return url
	}
	return categoryFallbacks[recipe.CategoryMainCourse]
}

// SearchQuery 組合搜尋字串，"food" 放在最前面以偏向食物照片
func SearchQuery(title string, category recipe.Category, query string) string {
	if q := strings.TrimSpace(query); q != "" {
		return "food " + q
	}
	return strings.TrimSpace(fmt.Sprintf("food %s %s", strings.TrimSpace(title), strings.ToLower(string(category))))
}

// ThumbnailResolver 以圖片搜尋服務尋找縮圖，失敗時回退到分類預設圖
type ThumbnailResolver struct {
	client    *resty.Client
	accessKey string
	cache     *cache.CacheManager
}

var _ ThumbnailFinder = (*ThumbnailResolver)(nil)

// NewThumbnailResolver 創建縮圖解析器，cacheManager 可為 nil
func NewThumbnailResolver(cfg config.ImageSearchConfig, cacheManager *cache.CacheManager) *ThumbnailResolver {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept-Version", "v1")

	return &ThumbnailResolver{
		client:    client,
		accessKey: cfg.AccessKey,
		cache:     cacheManager,
	}
}

type searchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
			Small   string `json:"small"`
		} `json:"urls"`
		AltDescription string `json:"alt_description"`
	} `json:"results"`
}

// Resolve 查詢縮圖；任何錯誤都不會往上拋
func (r *ThumbnailResolver) Resolve(ctx context.Context, title string, category recipe.Category, query string) string {
	fallback := FallbackThumbnail(category)

	if r.accessKey == "" {
		common.LogDebug("Image search key missing, using category fallback")
		monitoring.ThumbnailLookupsTotal.WithLabelValues("fallback").Inc()
		return fallback
	}

	finalQuery := SearchQuery(title, category, query)
	if url, ok := r.cache.Get(finalQuery); ok {
		monitoring.ThumbnailLookupsTotal.WithLabelValues("cache").Inc()
		return url
	}

	var result searchResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query":       finalQuery,
			"orientation": "squarish",
			"per_page":    "3",
			"client_id":   r.accessKey,
		}).
		SetResult(&result).
		Get("/search/photos")
	if err != nil {
		common.LogWarn("縮圖搜尋失敗，使用預設圖", zap.Error(err), zap.String("query", finalQuery))
		monitoring.ThumbnailLookupsTotal.WithLabelValues("fallback").Inc()
		return fallback
	}
	if resp.IsError() {
		common.LogWarn("縮圖搜尋返回錯誤，使用預設圖", zap.Int("status", resp.StatusCode()), zap.String("query", finalQuery))
		monitoring.ThumbnailLookupsTotal.WithLabelValues("fallback").Inc()
		return fallback
	}
	if len(result.Results) == 0 || result.Results[0].URLs.Small == "" {
		common.LogInfo("縮圖搜尋沒有結果，使用預設圖", zap.String("query", finalQuery))
		monitoring.ThumbnailLookupsTotal.WithLabelValues("fallback").Inc()
		return fallback
	}

	url := result.Results[0].URLs.Small
	r.cache.Set(finalQuery, url)
	monitoring.ThumbnailLookupsTotal.WithLabelValues("search").Inc()
	common.LogDebug("縮圖搜尋命中",
		zap.String("query", finalQuery),
		zap.Int("results", len(result.Results)),
	)
	return url
}
