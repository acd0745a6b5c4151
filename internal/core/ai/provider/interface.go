package provider

import (
	"context"
	"time"
)

// Message 表示與 AI 模型的對話消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request 表示發送到 AI 提供者的請求
type Request struct {
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	// JSONMode 要求模型只輸出一個 JSON 物件
	JSONMode bool `json:"json_mode,omitempty"`
}

// Response 表示從 AI 提供者收到的響應
type Response struct {
	Content string `json:"content"`
	Usage   struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Provider 定義 AI 提供者介面
type Provider interface {
	// Generate 生成 AI 響應，呼叫端以 ctx 控制逾時
	Generate(ctx context.Context, req *Request) (*Response, error)

	// GetModel 獲取當前使用的模型名稱
	GetModel() string

	// GetTimeout 獲取請求超時時間
	GetTimeout() time.Duration

	// Close 關閉提供者連接
	Close() error
}

// Func 讓普通函式滿足 Provider，測試與簡單場景使用
type Func func(ctx context.Context, req *Request) (*Response, error)

// Generate 呼叫函式本身
func (f Func) Generate(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// GetModel 固定回傳 "func"
func (f Func) GetModel() string { return "func" }

// GetTimeout 不設上限
func (f Func) GetTimeout() time.Duration { return 0 }

// Close 無需釋放資源
func (f Func) Close() error { return nil }

// System 建立 system 角色消息
func System(content string) Message {
	return Message{Role: "system", Content: content}
}

// User 建立 user 角色消息
func User(content string) Message {
	return Message{Role: "user", Content: content}
}
