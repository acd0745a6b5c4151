package grocery

import (
	"strings"

	"cookclip/internal/core/recipe"
	"cookclip/internal/pkg/common"
)

// Category 購物分類
type Category string

const (
	CategoryProduce     Category = "Produce"
	CategoryMeatSeafood Category = "Meat & Seafood"
	CategoryDairyEggs   Category = "Dairy & Eggs"
	CategoryPantry      Category = "Pantry"
	CategorySpices      Category = "Spices & Seasonings"
	CategoryGrainsBread Category = "Grains & Bread"
	CategoryFrozen      Category = "Frozen"
	CategoryBeverages   Category = "Beverages"
	CategoryOther       Category = "Other"
)

// Categories 所有分類，順序即清單分組順序
var Categories = []Category{
	CategoryProduce,
	CategoryMeatSeafood,
	CategoryDairyEggs,
	CategoryPantry,
	CategorySpices,
	CategoryGrainsBread,
	CategoryFrozen,
	CategoryBeverages,
	CategoryOther,
}

// NormalizeCategory 不分大小寫比對分類，未知的歸為 Other
func NormalizeCategory(s string) Category {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c
		}
	}
	return CategoryOther
}

// Item 購物清單項目；Quantity 為所有來源的總和，RecipeIDs 只增不減
type Item struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Quantity  float64  `json:"quantity"`
	Unit      string   `json:"unit,omitempty"`
	Checked   bool     `json:"checked"`
	RecipeIDs []string `json:"recipeIds"`
	Category  Category `json:"category,omitempty"`
}

// Key 合併用的鍵：去空白後小寫
func (i Item) Key() string {
	return itemKey(i.Name)
}

func itemKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Source 帶來源食譜的食材
type Source struct {
	Ingredient recipe.Ingredient
	RecipeID   string
}

// ErrItemNotFound 購物項目不存在
var ErrItemNotFound = common.NotFound("grocery item not found")
