package grocery

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"cookclip/internal/core/mealplan"
	"cookclip/internal/core/recipe"
	"cookclip/internal/pkg/common"
)

var leadingNumber = regexp.MustCompile(`^\s*[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// ParseQuantity 取字串開頭的數字；無法解析、非正數時視為 1
func ParseQuantity(s string) float64 {
	m := leadingNumber.FindString(s)
	if m == "" {
		return 1
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(m), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 1
	}
	return v
}

// FromRecipes 展開食譜的所有食材
func FromRecipes(recipes []*recipe.Recipe) []Source {
	var sources []Source
	for _, r := range recipes {
		sources = appendRecipe(sources, r)
	}
	return sources
}

// FromMealPlan 依菜單的每一餐展開食材，同一食譜出現幾次就計幾次；查不到的食譜略過
func FromMealPlan(plan *mealplan.MealPlan, recipes map[string]*recipe.Recipe) []Source {
	var sources []Source
	for _, day := range plan.Days {
		for _, slot := range day.Slots() {
			if r, ok := recipes[slot.RecipeID]; ok {
				sources = appendRecipe(sources, r)
			}
		}
	}
	return sources
}

func appendRecipe(sources []Source, r *recipe.Recipe) []Source {
	for _, ing := range r.Ingredients {
		sources = append(sources, Source{Ingredient: ing, RecipeID: r.ID})
	}
	return sources
}

// Aggregate 將新食材合併進既有清單，不修改輸入。
// 名稱（不分大小寫）相同時數量相加、來源食譜取聯集，第一個非空單位保留；
// 既有項目維持原順序，新項目依首次出現順序附加在後。
func Aggregate(existing []Item, sources []Source) []Item {
	out := make([]Item, 0, len(existing)+len(sources))
	index := make(map[string]int, len(existing)+len(sources))

	add := func(item Item) {
		key := item.Key()
		if i, ok := index[key]; ok {
			merged := &out[i]
			merged.Quantity += item.Quantity
			merged.RecipeIDs = unionIDs(merged.RecipeIDs, item.RecipeIDs)
			if merged.Unit == "" {
				merged.Unit = item.Unit
			}
			return
		}
		index[key] = len(out)
		out = append(out, item)
	}

	for _, item := range existing {
		item.RecipeIDs = append([]string{}, item.RecipeIDs...)
		add(item)
	}

	for _, src := range sources {
		if itemKey(src.Ingredient.Name) == "" {
			continue
		}
		var ids []string
		if src.RecipeID != "" {
			ids = []string{src.RecipeID}
		}
		add(Item{
			ID:        common.GenerateUUID(),
			Name:      src.Ingredient.Name,
			Quantity:  ParseQuantity(src.Ingredient.Quantity),
			Unit:      src.Ingredient.Unit,
			RecipeIDs: ids,
		})
	}

	for i := range out {
		if out[i].RecipeIDs == nil {
			out[i].RecipeIDs = []string{}
		}
	}
	return out
}

func unionIDs(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, ids := range [][]string{a, b} {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}
