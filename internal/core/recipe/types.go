package recipe

import (
	"strings"
	"time"
)

// Platform 影片來源平台
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
)

// Difficulty 料理難度
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid 檢查難度是否為已知值
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Category 食譜分類
type Category string

const (
	CategoryPasta      Category = "Pasta"
	CategorySalad      Category = "Salad"
	CategorySoup       Category = "Soup"
	CategoryDessert    Category = "Dessert"
	CategoryMeat       Category = "Meat"
	CategorySeafood    Category = "Seafood"
	CategoryBreakfast  Category = "Breakfast"
	CategoryDrink      Category = "Drink"
	CategoryMainCourse Category = "Main Course"
	CategoryAppetizer  Category = "Appetizer"
	CategorySnack      Category = "Snack"
	CategoryBread      Category = "Bread"
	CategoryVegetarian Category = "Vegetarian"
)

// Categories 全部 13 個分類，順序即提示詞中的順序
var Categories = []Category{
	CategoryPasta, CategorySalad, CategorySoup, CategoryDessert, CategoryMeat,
	CategorySeafood, CategoryBreakfast, CategoryDrink, CategoryMainCourse,
	CategoryAppetizer, CategorySnack, CategoryBread, CategoryVegetarian,
}

// Valid 檢查分類是否為已知值
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Ingredient 食材
type Ingredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Step 料理步驟，Order 從 1 開始
type Step struct {
	Order            int      `json:"order"`
	Description      string   `json:"description"`
	HighlightedWords []string `json:"highlightedWords"`
}

// Nutrition 營養資訊，未知欄位為 nil
type Nutrition struct {
	Calories *float64 `json:"calories,omitempty"`
	Protein  *float64 `json:"protein,omitempty"`
	Carbs    *float64 `json:"carbs,omitempty"`
	Fat      *float64 `json:"fat,omitempty"`
}

// Recipe 已持久化的食譜，寫入後不可變更
type Recipe struct {
	ID              string       `json:"id"`
	URL             string       `json:"url"`
	Fingerprint     string       `json:"urlHash"`
	Platform        Platform     `json:"platform"`
	Title           string       `json:"title"`
	ThumbnailURL    string       `json:"thumbnailUrl"`
	Servings        int          `json:"servings"`
	Ingredients     []Ingredient `json:"ingredients"`
	Steps           []Step       `json:"steps"`
	Nutrition       *Nutrition   `json:"nutrition,omitempty"`
	CookTimeMinutes *int         `json:"cookTimeMinutes,omitempty"`
	Difficulty      Difficulty   `json:"difficulty,omitempty"`
	IsVegetarian    bool         `json:"isVegetarian"`
	IsVegan         bool         `json:"isVegan"`
	IsGlutenFree    bool         `json:"isGlutenFree"`
	Category        Category     `json:"category"`
	RawTranscript   string       `json:"-"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// IngredientNames 返回食材名稱列表
func (r *Recipe) IngredientNames() []string {
	names := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		names = append(names, ing.Name)
	}
	return names
}

// Summary 一行描述，用於提示詞
func (r *Recipe) Summary() string {
	return r.ID + ": " + strings.TrimSpace(r.Title)
}
