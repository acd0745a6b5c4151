package mealplan

import "cookclip/internal/core/recipe"

// Matches 檢查食譜是否符合偏好；沒有烹調時間的食譜不受 MaxCookTime 限制
func (p *Preferences) Matches(r *recipe.Recipe) bool {
	if p == nil {
		return true
	}
	if p.Vegetarian && !r.IsVegetarian {
		return false
	}
	if p.Vegan && !r.IsVegan {
		return false
	}
	if p.GlutenFree && !r.IsGlutenFree {
		return false
	}
	if p.MaxCookTime != nil && *p.MaxCookTime > 0 && r.CookTimeMinutes != nil && *r.CookTimeMinutes > *p.MaxCookTime {
		return false
	}
	return true
}

// FilterRecipes 保留符合偏好的食譜，順序不變
func FilterRecipes(recipes []*recipe.Recipe, prefs *Preferences) []*recipe.Recipe {
	out := make([]*recipe.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if prefs.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}
