package extraction

import (
	"context"
	"errors"
	"strings"
	"time"

	"cookclip/internal/core/recipe"
	"cookclip/internal/infrastructure/monitoring"
	"cookclip/internal/pkg/common"

	"go.uber.org/zap"
)

// DefaultLanguage 未指定語言時使用
const DefaultLanguage = "en"

// Result 分析結果，Cached 表示食譜來自快取（含並發寫入衝突後重新讀取）
type Result struct {
	Recipe *recipe.Recipe
	Cached bool
}

// Pipeline 影片網址到食譜的抽取流程：
// CACHE_CHECK → FETCH_TRANSCRIPT → PARSE → RESOLVE_THUMBNAIL → PERSIST，依序執行
type Pipeline struct {
	store       recipe.Store
	transcripts TranscriptFetcher
	parser      RecipeParser
	thumbnails  ThumbnailFinder
}

// NewPipeline 創建抽取流程
func NewPipeline(store recipe.Store, transcripts TranscriptFetcher, parser RecipeParser, thumbnails ThumbnailFinder) *Pipeline {
	return &Pipeline{
		store:       store,
		transcripts: transcripts,
		parser:      parser,
		thumbnails:  thumbnails,
	}
}

// Analyze 執行完整流程；任何致命錯誤都不會寫入資料
func (p *Pipeline) Analyze(ctx context.Context, url, language string) (*Result, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, common.ValidationFailed("url is required")
	}
	if language == "" {
		language = DefaultLanguage
	}

	// 未知平台在任何網路呼叫之前就失敗
	platform, err := DetectPlatform(url)
	if err != nil {
		monitoring.ExtractionsTotal.WithLabelValues(common.ErrCodeUnsupportedPlatform).Inc()
		return nil, err
	}

	fingerprint := Fingerprint(url)
	logFields := []zap.Field{
		zap.String("fingerprint", fingerprint),
		zap.String("platform", string(platform)),
	}

	// CACHE_CHECK
	start := time.Now()
	cached, err := p.store.GetByFingerprint(ctx, fingerprint)
	monitoring.ObserveStage("cache_check", start)
	switch {
	case err == nil:
		common.LogInfo("食譜快取命中", logFields...)
		monitoring.ExtractionsTotal.WithLabelValues("cached").Inc()
		return &Result{Recipe: cached, Cached: true}, nil
	case !errors.Is(err, recipe.ErrNotFound):
		return nil, p.fail(common.Internal("recipe cache lookup failed", err))
	}

	// FETCH_TRANSCRIPT
	start = time.Now()
	transcript, err := p.transcripts.Fetch(ctx, url, language)
	monitoring.ObserveStage("fetch_transcript", start)
	if err != nil {
		common.LogWarn("逐字稿取得失敗", append(logFields, zap.Error(err))...)
		return nil, p.fail(err)
	}

	// PARSE
	start = time.Now()
	ext, err := p.parser.Parse(ctx, transcript.Text, language)
	monitoring.ObserveStage("parse", start)
	if err != nil {
		common.LogWarn("食譜抽取失敗", append(logFields, zap.Error(err))...)
		return nil, p.fail(err)
	}

	// RESOLVE_THUMBNAIL
	start = time.Now()
	thumbnail := p.thumbnails.Resolve(ctx, ext.Title, ext.Category, ext.ThumbnailQuery)
	monitoring.ObserveStage("resolve_thumbnail", start)

	// PERSIST
	candidate := &recipe.Recipe{
		URL:             url,
		Fingerprint:     fingerprint,
		Platform:        platform,
		Title:           ext.Title,
		ThumbnailURL:    thumbnail,
		Servings:        ext.Servings,
		Ingredients:     ext.Ingredients,
		Steps:           ext.Steps,
		Nutrition:       ext.Nutrition,
		CookTimeMinutes: ext.CookTimeMinutes,
		Difficulty:      ext.Difficulty,
		IsVegetarian:    ext.IsVegetarian,
		IsVegan:         ext.IsVegan,
		IsGlutenFree:    ext.IsGlutenFree,
		Category:        ext.Category,
		RawTranscript:   transcript.Text,
	}

	start = time.Now()
	saved, err := p.store.Put(ctx, candidate)
	monitoring.ObserveStage("persist", start)
	if err != nil {
		if !errors.Is(err, recipe.ErrConflict) {
			return nil, p.fail(common.Internal("failed to persist recipe", err))
		}

		// 並發的同網址請求已先寫入，改回傳既有的那一筆
		existing, getErr := p.store.GetByFingerprint(ctx, fingerprint)
		if getErr != nil {
			return nil, p.fail(common.Internal("failed to reload recipe after conflict", getErr))
		}
		common.LogInfo("食譜寫入衝突，改用既有資料", logFields...)
		monitoring.ExtractionsTotal.WithLabelValues("conflict").Inc()
		return &Result{Recipe: existing, Cached: true}, nil
	}

	common.LogInfo("食譜抽取完成", append(logFields,
		zap.String("recipe_id", saved.ID),
		zap.String("title", saved.Title),
	)...)
	monitoring.ExtractionsTotal.WithLabelValues("extracted").Inc()
	return &Result{Recipe: saved, Cached: false}, nil
}

func (p *Pipeline) fail(err error) error {
	code := common.ErrCodeInternalError
	if ce, ok := common.AsCustomError(err); ok {
		code = ce.Code
	}
	monitoring.ExtractionsTotal.WithLabelValues(code).Inc()
	return err
}
