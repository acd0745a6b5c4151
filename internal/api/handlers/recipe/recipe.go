package recipe

import (
	"context"
	"net/http"

	"cookclip/internal/api/handlers"
	"cookclip/internal/core/extraction"
	"cookclip/internal/core/recipe"
	"cookclip/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Analyzer 影片網址分析
type Analyzer interface {
	Analyze(ctx context.Context, url, language string) (*extraction.Result, error)
}

// Getter 以 ID 讀取食譜
type Getter interface {
	GetByID(ctx context.Context, id string) (*recipe.Recipe, error)
}

// Handler 食譜處理程序
type Handler struct {
	analyzer Analyzer
	recipes  Getter
}

// NewHandler 創建食譜處理程序
func NewHandler(analyzer Analyzer, recipes Getter) *Handler {
	return &Handler{analyzer: analyzer, recipes: recipes}
}

// AnalyzeRequest 分析請求，language 為兩字母語言代碼
type AnalyzeRequest struct {
	URL      string `json:"url" binding:"required,url"`
	Language string `json:"language,omitempty" binding:"omitempty,len=2,alpha"`
}

// AnalyzeResponse 食譜欄位加上 cached
type AnalyzeResponse struct {
	*recipe.Recipe
	Cached bool `json:"cached"`
}

// HandleAnalyze 影片網址轉食譜
func (h *Handler) HandleAnalyze(c *gin.Context) {
	var req AnalyzeRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	common.LogInfo("開始處理影片分析請求",
		zap.String("request_id", c.GetHeader("X-Request-ID")),
		zap.String("url", req.URL),
		zap.String("language", req.Language),
	)

	result, err := h.analyzer.Analyze(c.Request.Context(), req.URL, req.Language)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, AnalyzeResponse{Recipe: result.Recipe, Cached: result.Cached})
}

// HandleGet 讀取單一食譜
func (h *Handler) HandleGet(c *gin.Context) {
	r, err := h.recipes.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
