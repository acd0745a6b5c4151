package extraction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cookclip/internal/core/ai/provider"
	"cookclip/internal/core/recipe"
	"cookclip/internal/pkg/common"

	"go.uber.org/zap"
)

// RecipeParser 將逐字稿轉為結構化食譜
type RecipeParser interface {
	Parse(ctx context.Context, transcript, language string) (*recipe.Extraction, error)
}

const parserSystemPrompt = `You are a culinary expert assistant that extracts recipe information from cooking video transcripts.

Given a transcript from a cooking video, extract:
1. title: a descriptive name for the recipe
2. servings: number of portions (default to 4 if not mentioned)
3. ingredients: every ingredient with quantity (as a string) and unit
4. steps: ordered instructions; for each step list the ingredient names mentioned in its description as "highlightedWords"
5. nutrition (optional): estimated calories, protein, carbs, fat
6. cookTimeMinutes: estimated total time in minutes
7. difficulty: "easy" (1-5 simple steps), "medium" (6-10 steps, some technique) or "hard" (complex techniques, many steps)
8. isVegetarian (no meat or fish), isVegan (no animal products), isGlutenFree (no wheat, barley or rye)
9. category: one of %s
10. thumbnailQuery: a 1-3 word food photography search term focused on the main dish, avoiding words with non-food meanings

Respond with a single JSON object:
{"title":"Recipe Name","servings":4,"cookTimeMinutes":25,"difficulty":"easy","isVegetarian":false,"isVegan":false,"isGlutenFree":true,"category":"Main Course","thumbnailQuery":"grilled chicken","ingredients":[{"name":"chicken breast","quantity":"500","unit":"g"}],"steps":[{"order":1,"description":"Season the chicken breast with salt and pepper.","highlightedWords":["chicken breast","salt","pepper"]}],"nutrition":{"calories":350,"protein":30,"carbs":20,"fat":15}}

Extract exact quantities when mentioned and use reasonable estimates when unclear.`

// Parser 以推理服務抽取食譜
type Parser struct {
	provider  provider.Provider
	maxTokens int
}

var _ RecipeParser = (*Parser)(nil)

// NewParser 創建食譜解析器
func NewParser(p provider.Provider) *Parser {
	return &Parser{provider: p, maxTokens: 4096}
}

func categoryList() string {
	names := make([]string, 0, len(recipe.Categories))
	for _, c := range recipe.Categories {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}

// Parse 發送逐字稿並驗證模型回傳的 JSON
func (p *Parser) Parse(ctx context.Context, transcript, language string) (*recipe.Extraction, error) {
	user := "Extract the recipe from this cooking video transcript:\n\n" + transcript
	if language != "" {
		user = fmt.Sprintf("The video language code is %q; write text fields in that language.\n\n%s", language, user)
	}

	start := time.Now()
	resp, err := p.provider.Generate(ctx, &provider.Request{
		Messages: []provider.Message{
			provider.System(fmt.Sprintf(parserSystemPrompt, categoryList())),
			provider.User(user),
		},
		MaxTokens:   p.maxTokens,
		Temperature: 0.3,
		JSONMode:    true,
	})
	if err != nil {
		return nil, common.ExtractionParse("reasoning service call failed", err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return nil, common.ExtractionParse("reasoning service returned empty content", nil)
	}

	ext, err := recipe.ParseExtraction(resp.Content)
	if err != nil {
		common.LogWarn("食譜解析失敗",
			zap.Error(err),
			zap.String("preview", common.Truncate(resp.Content, 200)),
		)
		return nil, err
	}

	common.LogInfo("食譜解析完成",
		zap.String("title", ext.Title),
		zap.Int("ingredients", len(ext.Ingredients)),
		zap.Int("steps", len(ext.Steps)),
		zap.Duration("耗時", time.Since(start)),
	)
	return ext, nil
}
