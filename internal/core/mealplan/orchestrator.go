package mealplan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"cookclip/internal/core/ai/provider"
	"cookclip/internal/core/recipe"
	"cookclip/internal/infrastructure/config"
	"cookclip/internal/infrastructure/monitoring"
	"cookclip/internal/pkg/common"

	"go.uber.org/zap"
)

// RecipeLookup 菜單生成需要的食譜查詢
type RecipeLookup interface {
	GetByID(ctx context.Context, id string) (*recipe.Recipe, error)
	GetByIDs(ctx context.Context, ids []string) ([]*recipe.Recipe, error)
}

// Orchestrator 兩階段菜單生成：草稿（失敗即中止）與優化（失敗回退草稿）
type Orchestrator struct {
	recipes  RecipeLookup
	plans    Store
	provider provider.Provider
	config   config.MealPlanConfig
	now      func() time.Time
	editMu   sync.Mutex
}

// NewOrchestrator 創建菜單編排器
func NewOrchestrator(recipes RecipeLookup, plans Store, p provider.Provider, cfg config.MealPlanConfig) *Orchestrator {
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = 30
	}
	return &Orchestrator{
		recipes:  recipes,
		plans:    plans,
		provider: p,
		config:   cfg,
		now:      time.Now,
	}
}

type rawSlot struct {
	RecipeID string      `json:"recipeId"`
	Servings json.Number `json:"servings"`
}

type rawDay struct {
	Breakfast *rawSlot  `json:"breakfast"`
	Lunch     *rawSlot  `json:"lunch"`
	Dinner    *rawSlot  `json:"dinner"`
	Snacks    []rawSlot `json:"snacks"`
}

// Generate 生成並儲存菜單
func (o *Orchestrator) Generate(ctx context.Context, req GenerateRequest) (*MealPlan, error) {
	ids := dedupe(req.RecipeIDs)
	if len(ids) == 0 {
		return nil, common.ValidationFailed("recipeIds must contain at least one id")
	}
	if req.Duration < 1 || req.Duration > o.config.MaxDuration {
		return nil, common.ValidationFailed(fmt.Sprintf("duration must be between 1 and %d", o.config.MaxDuration))
	}

	recipes, err := o.recipes.GetByIDs(ctx, ids)
	if err != nil {
		return nil, common.Internal("failed to load recipes", err)
	}
	if len(recipes) == 0 {
		return nil, common.ErrNoRecipesFound
	}

	candidates := FilterRecipes(recipes, req.Preferences)
	if len(candidates) == 0 {
		return nil, common.ErrNoRecipesMatch
	}

	common.LogInfo("開始生成菜單",
		zap.Int("duration", req.Duration),
		zap.Int("recipes", len(recipes)),
		zap.Int("candidates", len(candidates)),
	)

	draft, err := o.draft(ctx, candidates, req.Duration)
	if err != nil {
		return nil, err
	}

	days, optimized := o.optimize(ctx, draft, candidates, req.Duration)
	if optimized {
		monitoring.MealPlanOptimizeTotal.WithLabelValues("optimized").Inc()
	} else {
		monitoring.MealPlanOptimizeTotal.WithLabelValues("degraded").Inc()
	}

	plan := &MealPlan{
		Name:        fmt.Sprintf("%d-Day Meal Plan", req.Duration),
		Description: "AI Optimized Meal Plan",
		Duration:    req.Duration,
		Days:        days,
	}
	saved, err := o.plans.Save(ctx, plan)
	if err != nil {
		return nil, common.Internal("failed to save meal plan", err)
	}

	common.LogInfo("菜單生成完成",
		zap.String("plan_id", saved.ID),
		zap.Bool("optimized", optimized),
	)
	return saved, nil
}

// draft 第一階段；任何錯誤、逾時或天數不符都是致命的
func (o *Orchestrator) draft(ctx context.Context, candidates []*recipe.Recipe, duration int) ([]MealPlanDay, error) {
	defer monitoring.ObserveStage("meal_plan_draft", time.Now())

	ctx, cancel := context.WithTimeout(ctx, o.config.DraftTimeout)
	defer cancel()

	lines := make([]string, 0, len(candidates))
	for _, r := range candidates {
		lines = append(lines, r.Summary())
	}
	prompt := fmt.Sprintf(`Create a %d-day meal plan using these recipes (use exact recipe IDs):
%s

Return ONLY valid JSON (no markdown) with this structure for each of %d days:
[{"day":1,"breakfast":{"recipeId":"<id>","servings":1},"lunch":{"recipeId":"<id>","servings":1},"dinner":{"recipeId":"<id>","servings":1},"snacks":[]}]`,
		duration, strings.Join(lines, "\n"), duration)

	resp, err := o.provider.Generate(ctx, &provider.Request{
		Messages:    []provider.Message{provider.User(prompt)},
		MaxTokens:   1500 + 100*duration,
		Temperature: 0.5,
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, common.DraftGeneration(fmt.Sprintf("draft generation timed out after %s", o.config.DraftTimeout), err)
		}
		return nil, common.DraftGeneration("draft generation failed", err)
	}

	raw, err := decodeDays(resp.Content)
	if err != nil {
		return nil, common.DraftGeneration("draft output is not a valid day array", err)
	}
	if len(raw) != duration {
		return nil, common.DraftGeneration(fmt.Sprintf("expected %d days, got %d", duration, len(raw)), nil)
	}

	return normalizeDays(raw, allowedIDs(candidates)), nil
}

// optimize 第二階段；失敗、逾時或形狀不符時原樣返回草稿
func (o *Orchestrator) optimize(ctx context.Context, draft []MealPlanDay, candidates []*recipe.Recipe, duration int) ([]MealPlanDay, bool) {
	defer monitoring.ObserveStage("meal_plan_optimize", time.Now())

	ctx, cancel := context.WithTimeout(ctx, o.config.OptimizeTimeout)
	defer cancel()

	type candidate struct {
		ID              string   `json:"id"`
		Title           string   `json:"title"`
		CookTimeMinutes *int     `json:"cookTimeMinutes,omitempty"`
		Difficulty      string   `json:"difficulty,omitempty"`
		Ingredients     []string `json:"ingredients"`
	}
	list := make([]candidate, 0, len(candidates))
	for _, r := range candidates {
		list = append(list, candidate{
			ID:              r.ID,
			Title:           r.Title,
			CookTimeMinutes: r.CookTimeMinutes,
			Difficulty:      string(r.Difficulty),
			Ingredients:     r.IngredientNames(),
		})
	}
	recipesJSON, err := json.Marshal(list)
	if err != nil {
		return degrade(draft, "marshal candidates", err)
	}
	draftJSON, err := json.Marshal(draft)
	if err != nil {
		return degrade(draft, "marshal draft", err)
	}

	system := `You are a meal-planning assistant. Improve the draft plan: spread recipes so the same recipe is not repeated on the same day or on consecutive days when alternatives exist, prefer quicker and easier recipes for breakfast and lunch, and group recipes that share ingredients close together to reduce waste. Use only the given recipe IDs and keep exactly the same number of days.`
	user := fmt.Sprintf(`Recipes:
%s

Draft plan (%d days):
%s

Return ONLY a JSON object {"days":[...]} where each day has the same structure as the draft.`, recipesJSON, duration, draftJSON)

	resp, err := o.provider.Generate(ctx, &provider.Request{
		Messages:    []provider.Message{provider.System(system), provider.User(user)},
		MaxTokens:   1500 + 100*duration,
		Temperature: 0.3,
		JSONMode:    true,
	})
	if err != nil {
		return degrade(draft, "optimize call failed", err)
	}

	raw, err := decodeDays(resp.Content)
	if err != nil {
		return degrade(draft, "optimize output undecodable", err)
	}
	if len(raw) != duration {
		return degrade(draft, "optimize output has wrong shape", fmt.Errorf("expected %d days, got %d", duration, len(raw)))
	}

	return normalizeDays(raw, allowedIDs(candidates)), true
}

func degrade(draft []MealPlanDay, reason string, err error) ([]MealPlanDay, bool) {
	common.LogWarn("菜單優化失敗，使用草稿", zap.String("reason", reason), zap.Error(err))
	return draft, false
}

// decodeDays 接受 [...] 或 {"days":[...]}
func decodeDays(content string) ([]rawDay, error) {
	arrStart := strings.Index(content, "[")
	objStart := strings.Index(content, "{")
	if objStart != -1 && (arrStart == -1 || objStart < arrStart) {
		if body, ok := common.ExtractJSONObject(content); ok {
			var wrapper struct {
				Days []rawDay `json:"days"`
			}
			if err := common.ParseJSON(body, &wrapper); err == nil && wrapper.Days != nil {
				return wrapper.Days, nil
			}
		}
	}

	body, ok := common.ExtractJSONArray(content)
	if !ok {
		return nil, errors.New("no JSON array in model output")
	}
	var days []rawDay
	if err := common.ParseJSON(body, &days); err != nil {
		return nil, err
	}
	return days, nil
}

// normalizeDays 依位置重新編號，丟棄候選集合外的食譜，份數至少為 1
func normalizeDays(raw []rawDay, allowed map[string]bool) []MealPlanDay {
	days := make([]MealPlanDay, len(raw))
	for i, d := range raw {
		days[i] = MealPlanDay{
			Day:       i + 1,
			Breakfast: toSlot(d.Breakfast, allowed),
			Lunch:     toSlot(d.Lunch, allowed),
			Dinner:    toSlot(d.Dinner, allowed),
			Snacks:    []MealSlot{},
		}
		for j := range d.Snacks {
			if s := toSlot(&d.Snacks[j], allowed); s != nil {
				days[i].Snacks = append(days[i].Snacks, *s)
			}
		}
	}
	return days
}

func toSlot(s *rawSlot, allowed map[string]bool) *MealSlot {
	if s == nil || !allowed[s.RecipeID] {
		return nil
	}
	servings := 1
	if f, err := s.Servings.Float64(); err == nil && f >= 1 {
		servings = int(math.Round(f))
	}
	return &MealSlot{RecipeID: s.RecipeID, Servings: servings}
}

func allowedIDs(recipes []*recipe.Recipe) map[string]bool {
	out := make(map[string]bool, len(recipes))
	for _, r := range recipes {
		out[r.ID] = true
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Get 讀取菜單
func (o *Orchestrator) Get(ctx context.Context, id string) (*MealPlan, error) {
	return o.plans.Get(ctx, id)
}

// Delete 刪除菜單
func (o *Orchestrator) Delete(ctx context.Context, id string) error {
	return o.plans.Delete(ctx, id)
}

// SetMeal 設定某天某餐；點心為附加
func (o *Orchestrator) SetMeal(ctx context.Context, planID string, day int, meal MealType, slot MealSlot) (*MealPlan, error) {
	if _, err := o.recipes.GetByID(ctx, slot.RecipeID); err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			return nil, err
		}
		return nil, common.Internal("failed to load recipe", err)
	}
	if slot.Servings < 1 {
		slot.Servings = 1
	}

	return o.edit(ctx, planID, day, func(d *MealPlanDay) {
		switch meal {
		case MealBreakfast:
			d.Breakfast = &slot
		case MealLunch:
			d.Lunch = &slot
		case MealDinner:
			d.Dinner = &slot
		case MealSnack:
			d.Snacks = append(d.Snacks, slot)
		}
	})
}

// RemoveMeal 清除某天某餐；點心會全部清除
func (o *Orchestrator) RemoveMeal(ctx context.Context, planID string, day int, meal MealType) (*MealPlan, error) {
	return o.edit(ctx, planID, day, func(d *MealPlanDay) {
		switch meal {
		case MealBreakfast:
			d.Breakfast = nil
		case MealLunch:
			d.Lunch = nil
		case MealDinner:
			d.Dinner = nil
		case MealSnack:
			d.Snacks = []MealSlot{}
		}
	})
}

func (o *Orchestrator) edit(ctx context.Context, planID string, day int, apply func(*MealPlanDay)) (*MealPlan, error) {
	o.editMu.Lock()
	defer o.editMu.Unlock()

	plan, err := o.plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if day < 1 || day > len(plan.Days) {
		return nil, common.ValidationFailed(fmt.Sprintf("day must be between 1 and %d", len(plan.Days)))
	}

	apply(&plan.Days[day-1])
	plan.UpdatedAt = o.now().UTC()

	if err := o.plans.Update(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}
