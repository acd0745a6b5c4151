package mealplan

import (
	"context"
	"time"

	"cookclip/internal/pkg/common"
)

// MealType 餐別
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// ParseMealType 解析餐別，接受 "snacks" 作為 "snack" 的別名
func ParseMealType(s string) (MealType, error) {
	switch MealType(s) {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return MealType(s), nil
	case "snacks":
		return MealSnack, nil
	}
	return "", common.ValidationFailed("unknown meal type " + s)
}

// MealSlot 一餐：食譜與份數
type MealSlot struct {
	RecipeID string `json:"recipeId"`
	Servings int    `json:"servings"`
}

// MealPlanDay 一天的安排，Day 從 1 開始
type MealPlanDay struct {
	Day       int        `json:"day"`
	Breakfast *MealSlot  `json:"breakfast,omitempty"`
	Lunch     *MealSlot  `json:"lunch,omitempty"`
	Dinner    *MealSlot  `json:"dinner,omitempty"`
	Snacks    []MealSlot `json:"snacks"`
}

// Slots 依早餐、午餐、晚餐、點心的順序列出所有餐
func (d MealPlanDay) Slots() []MealSlot {
	var out []MealSlot
	for _, s := range []*MealSlot{d.Breakfast, d.Lunch, d.Dinner} {
		if s != nil {
			out = append(out, *s)
		}
	}
	return append(out, d.Snacks...)
}

// MealPlan 多日菜單，len(Days) == Duration 且 Days[i].Day == i+1
type MealPlan struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Duration    int           `json:"duration"`
	Days        []MealPlanDay `json:"days"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// RecipeIDs 菜單中引用的所有食譜 ID（去重，保持首次出現順序）
func (p *MealPlan) RecipeIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, d := range p.Days {
		for _, s := range d.Slots() {
			if !seen[s.RecipeID] {
				seen[s.RecipeID] = true
				ids = append(ids, s.RecipeID)
			}
		}
	}
	return ids
}

// Preferences 飲食偏好
type Preferences struct {
	Vegetarian  bool `json:"vegetarian"`
	Vegan       bool `json:"vegan"`
	GlutenFree  bool `json:"glutenFree"`
	MaxCookTime *int `json:"maxCookTime,omitempty"`
}

// GenerateRequest 菜單生成請求
type GenerateRequest struct {
	RecipeIDs   []string     `json:"recipeIds"`
	Duration    int          `json:"duration"`
	Preferences *Preferences `json:"preferences,omitempty"`
}

// ErrNotFound 菜單不存在
var ErrNotFound = common.NotFound("meal plan not found")

// Store 菜單儲存，Days 以不透明的 JSON 區塊保存
type Store interface {
	Save(ctx context.Context, plan *MealPlan) (*MealPlan, error)
	Get(ctx context.Context, id string) (*MealPlan, error)
	Update(ctx context.Context, plan *MealPlan) error
	Delete(ctx context.Context, id string) error
}
