package grocery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"cookclip/internal/core/ai/provider"
	"cookclip/internal/infrastructure/config"
	"cookclip/internal/infrastructure/monitoring"
	"cookclip/internal/pkg/common"

	"go.uber.org/zap"
)

// MergeInput 智慧合併的輸入項目
type MergeInput struct {
	Name     string  `json:"name" binding:"required"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit,omitempty"`
}

// MergedItem 智慧合併的輸出，Sources 為吸收的輸入索引（從 0 開始）
type MergedItem struct {
	Name     string   `json:"name"`
	Quantity float64  `json:"quantity"`
	Unit     string   `json:"unit,omitempty"`
	Category Category `json:"category"`
	Sources  []int    `json:"-"`
}

// SmartMerger 語意去重與分類
type SmartMerger interface {
	Merge(ctx context.Context, items []MergeInput) ([]MergedItem, error)
}

const mergeSystemPrompt = `You are a smart grocery list optimizer. Given a numbered list of ingredients:
1. Merge duplicates intelligently (e.g. "garlic cloves" and "minced garlic" → "garlic", "soy sauce" and "light soy sauce" → "soy sauce")
2. Combine quantities when merging (sum them up). When units differ, pick the most practical unit and convert.
3. Categorize each item into exactly one of: %s
4. Use clean, display-friendly names (capitalize properly, no redundancy)
5. For each output item list in "sources" the numbers of every input line it represents. Every input number must appear in exactly one output item.

Respond with JSON: {"items":[{"name":"...","quantity":number,"unit":"..." or null,"category":"...","sources":[1,2]}]}
Sort items by category grouping. Be accurate with quantities. Never drop items, only merge true duplicates.`

// Merger 以推理服務執行一次性的智慧合併
type Merger struct {
	provider provider.Provider
	timeout  time.Duration
}

var _ SmartMerger = (*Merger)(nil)

// NewMerger 創建智慧合併器
func NewMerger(p provider.Provider, cfg config.GroceryConfig) *Merger {
	timeout := cfg.SmartMergeTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Merger{provider: p, timeout: timeout}
}

type rawMerged struct {
	Name     string       `json:"name"`
	Quantity *json.Number `json:"quantity"`
	Unit     *string      `json:"unit"`
	Category string       `json:"category"`
	Sources  []int        `json:"sources"`
}

func categoryNames() string {
	quoted := make([]string, len(Categories))
	for i, c := range Categories {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return strings.Join(quoted, ", ")
}

func formatItemList(items []MergeInput) string {
	var b strings.Builder
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %s", i+1, formatQuantity(it.Quantity))
		if it.Unit != "" {
			b.WriteString(" " + it.Unit)
		}
		b.WriteString(" " + it.Name + "\n")
	}
	return b.String()
}

func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

// Merge 空輸入直接返回空結果，不呼叫推理服務
func (m *Merger) Merge(ctx context.Context, items []MergeInput) ([]MergedItem, error) {
	if len(items) == 0 {
		monitoring.SmartMergeTotal.WithLabelValues("empty").Inc()
		return []MergedItem{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	resp, err := m.provider.Generate(ctx, &provider.Request{
		Messages: []provider.Message{
			provider.System(fmt.Sprintf(mergeSystemPrompt, categoryNames())),
			provider.User("Here is my grocery list:\n" + formatItemList(items)),
		},
		MaxTokens:   2000,
		Temperature: 0.1,
		JSONMode:    true,
	})
	monitoring.ObserveStage("smart_merge", start)
	if err != nil {
		monitoring.SmartMergeTotal.WithLabelValues("failed").Inc()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, common.SmartMerge(fmt.Sprintf("smart merge timed out after %s", m.timeout), err)
		}
		return nil, common.SmartMerge("smart merge call failed", err)
	}

	merged, err := decodeMerged(resp.Content, items)
	if err != nil {
		monitoring.SmartMergeTotal.WithLabelValues("rejected").Inc()
		common.LogWarn("智慧合併結果無效",
			zap.Error(err),
			zap.String("preview", common.Truncate(resp.Content, 200)),
		)
		return nil, common.SmartMerge("smart merge returned an invalid result", err)
	}

	monitoring.SmartMergeTotal.WithLabelValues("merged").Inc()
	common.LogInfo("智慧合併完成",
		zap.Int("input", len(items)),
		zap.Int("output", len(merged)),
		zap.Duration("耗時", time.Since(start)),
	)
	return merged, nil
}

// decodeMerged 驗證輸出：數量不超過輸入，且每個輸入恰好被一個輸出項目吸收
func decodeMerged(content string, inputs []MergeInput) ([]MergedItem, error) {
	body, ok := common.ExtractJSONObject(content)
	if !ok {
		return nil, errors.New("no JSON object in model output")
	}
	var payload struct {
		Items []rawMerged `json:"items"`
	}
	if err := common.ParseJSON(body, &payload); err != nil {
		return nil, err
	}

	n := len(inputs)
	if len(payload.Items) == 0 {
		return nil, errors.New("no items returned")
	}
	if len(payload.Items) > n {
		return nil, fmt.Errorf("returned %d items for %d inputs", len(payload.Items), n)
	}

	// 模型完全省略 sources 且數量一致時，視為一對一
	positional := len(payload.Items) == n
	for _, it := range payload.Items {
		if len(it.Sources) > 0 {
			positional = false
			break
		}
	}

	owner := make([]int, n)
	for i := range owner {
		owner[i] = -1
	}

	out := make([]MergedItem, 0, len(payload.Items))
	for i, it := range payload.Items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			return nil, fmt.Errorf("item %d has no name", i+1)
		}

		sources := make([]int, 0, len(it.Sources))
		if positional {
			sources = append(sources, i)
		}
		for _, s := range it.Sources {
			idx := s - 1
			if idx < 0 || idx >= n {
				return nil, fmt.Errorf("item %q references unknown input %d", name, s)
			}
			if owner[idx] != -1 && owner[idx] != i {
				return nil, fmt.Errorf("input %d is claimed by more than one item", s)
			}
			if owner[idx] == i {
				continue
			}
			owner[idx] = i
			sources = append(sources, idx)
		}
		if positional {
			owner[i] = i
		}
		if len(sources) == 0 {
			return nil, fmt.Errorf("item %q does not cover any input", name)
		}

		quantity := 0.0
		if it.Quantity != nil {
			if f, err := it.Quantity.Float64(); err == nil && !math.IsNaN(f) {
				quantity = f
			}
		}
		if quantity <= 0 {
			for _, idx := range sources {
				quantity += inputs[idx].Quantity
			}
		}

		unit := ""
		if it.Unit != nil {
			unit = strings.TrimSpace(*it.Unit)
		}

		out = append(out, MergedItem{
			Name:     name,
			Quantity: quantity,
			Unit:     unit,
			Category: NormalizeCategory(it.Category),
			Sources:  sources,
		})
	}

	for idx, o := range owner {
		if o == -1 {
			return nil, fmt.Errorf("input %d (%s) was dropped", idx+1, inputs[idx].Name)
		}
	}
	return out, nil
}
