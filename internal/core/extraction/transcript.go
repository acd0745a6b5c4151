package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cookclip/internal/core/recipe"
	"cookclip/internal/infrastructure/config"
	"cookclip/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Transcript 影片逐字稿與附帶的中繼資料
type Transcript struct {
	Text      string
	Title     string
	Thumbnail string
	Platform  recipe.Platform
}

// TranscriptFetcher 取得影片逐字稿
type TranscriptFetcher interface {
	Fetch(ctx context.Context, url, language string) (*Transcript, error)
}

// platformEndpoints 每個平台各自的逐字稿端點
var platformEndpoints = map[recipe.Platform]string{
	recipe.PlatformYouTube:   "/v1/youtube/video/transcript",
	recipe.PlatformTikTok:    "/v1/tiktok/video/transcript",
	recipe.PlatformInstagram: "/v1/instagram/media/transcript",
}

// DetectPlatform 以子字串比對判斷平台，未知平台返回 UNSUPPORTED_PLATFORM
func DetectPlatform(url string) (recipe.Platform, error) {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "youtube.com"), strings.Contains(lower, "youtu.be"):
		return recipe.PlatformYouTube, nil
	case strings.Contains(lower, "tiktok.com"):
		return recipe.PlatformTikTok, nil
	case strings.Contains(lower, "instagram.com"):
		return recipe.PlatformInstagram, nil
	}
	return "", common.UnsupportedPlatform(url)
}

// TranscriptClient 逐字稿服務客戶端
type TranscriptClient struct {
	client *resty.Client
}

var _ TranscriptFetcher = (*TranscriptClient)(nil)

// NewTranscriptClient 創建逐字稿服務客戶端
func NewTranscriptClient(cfg config.TranscriptConfig) *TranscriptClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("x-api-key", cfg.APIKey).
		SetHeader("Accept", "application/json")

	return &TranscriptClient{client: client}
}

type segment struct {
	Text string `json:"text"`
}

type transcriptResponse struct {
	Success            *bool           `json:"success"`
	Transcript         json.RawMessage `json:"transcript"`
	TranscriptOnlyText string          `json:"transcript_only_text"`
	Transcripts        []segment       `json:"transcripts"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Thumbnail          string          `json:"thumbnail"`
}

// text 依序嘗試純文字、字串、分段陣列等格式
func (r *transcriptResponse) text() string {
	if s := strings.TrimSpace(r.TranscriptOnlyText); s != "" {
		return s
	}
	if len(r.Transcript) > 0 {
		var s string
		if err := json.Unmarshal(r.Transcript, &s); err == nil {
			return strings.TrimSpace(s)
		}
		var segs []segment
		if err := json.Unmarshal(r.Transcript, &segs); err == nil {
			return joinSegments(segs)
		}
	}
	return joinSegments(r.Transcripts)
}

func joinSegments(segs []segment) string {
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Fetch 呼叫平台對應的端點取得逐字稿
func (c *TranscriptClient) Fetch(ctx context.Context, url, language string) (*Transcript, error) {
	platform, err := DetectPlatform(url)
	if err != nil {
		return nil, err
	}

	params := map[string]string{"url": url}
	if language != "" && platform != recipe.PlatformInstagram {
		params["language"] = language
	}

	var result transcriptResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&result).
		Get(platformEndpoints[platform])
	if err != nil {
		return nil, common.UpstreamFetch("transcript request failed", err)
	}

	if resp.IsError() {
		common.LogWarn("逐字稿服務返回錯誤",
			zap.String("platform", string(platform)),
			zap.Int("status", resp.StatusCode()),
			zap.String("body", common.Truncate(resp.String(), 200)),
		)
		return nil, common.UpstreamFetch(fmt.Sprintf("transcript service returned status %d", resp.StatusCode()), nil)
	}

	if result.Success != nil && !*result.Success {
		return nil, common.UpstreamFetch("transcript service reported failure", nil)
	}

	text := result.text()
	if text == "" {
		return nil, common.UpstreamFetch("no transcript found in video", nil)
	}

	common.LogInfo("取得逐字稿",
		zap.String("platform", string(platform)),
		zap.Int("length", len(text)),
	)

	return &Transcript{
		Text:      text,
		Title:     strings.TrimSpace(result.Title),
		Thumbnail: result.Thumbnail,
		Platform:  platform,
	}, nil
}
