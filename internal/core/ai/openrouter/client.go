package openrouter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cookclip/internal/core/ai/provider"
	"cookclip/internal/infrastructure/config"
	"cookclip/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client OpenRouter（OpenAI 相容）聊天補全客戶端
type Client struct {
	config config.OpenRouterConfig
	client *resty.Client
}

var _ provider.Provider = (*Client)(nil)

// NewClient 創建新的 OpenRouter 客戶端
func NewClient(cfg config.OpenRouterConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("Content-Type", "application/json").
		SetHeader("HTTP-Referer", "https://cookclip.app").
		SetHeader("X-Title", "CookClip")

	// 預設不重試；設定 max_retries 時只對網路錯誤與 429/5xx 重試
	if cfg.MaxRetries > 0 {
		client.SetRetryCount(cfg.MaxRetries).
			SetRetryWaitTime(500 * time.Millisecond).
			SetRetryMaxWaitTime(3 * time.Second).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				if err != nil {
					return r == nil || r.Request == nil || r.Request.Context().Err() == nil
				}
				return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
			})
	}

	return &Client{
		config: cfg,
		client: client,
	}
}

// Generate 發送聊天補全請求
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	body := common.ChatCompletionRequest{
		Model:       c.config.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = c.config.MaxTokens
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, common.ChatMessage{Role: m.Role, Content: m.Content})
	}
	if req.JSONMode {
		body.ResponseFormat = &common.ResponseFormat{Type: "json_object"}
	}

	start := time.Now()
	var result common.ChatCompletionResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&result).
		Post("/chat/completions")
	if err != nil {
		common.LogAICall(c.config.Model, time.Since(start), err)
		return nil, fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		msg := resp.String()
		if result.Error != nil && result.Error.Message != "" {
			msg = result.Error.Message
		}
		err := fmt.Errorf("OpenRouter API returned status %d: %s", resp.StatusCode(), common.Truncate(msg, 200))
		common.LogAICall(c.config.Model, time.Since(start), err)
		return nil, err
	}

	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("no choices in OpenRouter response")
	}

	common.LogAICall(c.config.Model, time.Since(start), nil)
	common.LogDebug("OpenRouter usage",
		zap.Int("prompt_tokens", result.Usage.PromptTokens),
		zap.Int("completion_tokens", result.Usage.CompletionTokens),
	)

	out := &provider.Response{Content: result.Choices[0].Message.Content}
	out.Usage.PromptTokens = result.Usage.PromptTokens
	out.Usage.CompletionTokens = result.Usage.CompletionTokens
	out.Usage.TotalTokens = result.Usage.TotalTokens
	return out, nil
}

// GetModel 獲取當前使用的模型名稱
func (c *Client) GetModel() string {
	return c.config.Model
}

// GetTimeout 獲取請求超時時間
func (c *Client) GetTimeout() time.Duration {
	return c.config.Timeout
}

// Close 關閉客戶端
func (c *Client) Close() error {
	return nil
}
