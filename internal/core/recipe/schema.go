package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"cookclip/internal/pkg/common"
)

// Extraction 模型從逐字稿抽取出的食譜內容，尚未持久化
type Extraction struct {
	Title           string
	Servings        int
	Ingredients     []Ingredient
	Steps           []Step
	Nutrition       *Nutrition
	CookTimeMinutes *int
	Difficulty      Difficulty
	IsVegetarian    bool
	IsVegan         bool
	IsGlutenFree    bool
	Category        Category
	ThumbnailQuery  string
}

// flexString 接受字串、數字或 null
type flexString struct {
	Value string
	Set   bool
}

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f.Value, f.Set = s, true
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", string(data))
	}
	f.Value, f.Set = n.String(), true
	return nil
}

type rawIngredient struct {
	Name     string     `json:"name"`
	Quantity flexString `json:"quantity"`
	Unit     *string    `json:"unit"`
}

type rawStep struct {
	Order            *json.Number `json:"order"`
	Description      string       `json:"description"`
	HighlightedWords []string     `json:"highlightedWords"`
}

type rawNutrition struct {
	Calories *json.Number `json:"calories"`
	Protein  *json.Number `json:"protein"`
	Carbs    *json.Number `json:"carbs"`
	Fat      *json.Number `json:"fat"`
}

type rawExtraction struct {
	Title           *string         `json:"title"`
	Servings        *json.Number    `json:"servings"`
	Ingredients     []rawIngredient `json:"ingredients"`
	Steps           []rawStep       `json:"steps"`
	Nutrition       *rawNutrition   `json:"nutrition"`
	CookTimeMinutes *json.Number    `json:"cookTimeMinutes"`
	Difficulty      *string         `json:"difficulty"`
	IsVegetarian    *bool           `json:"isVegetarian"`
	IsVegan         *bool           `json:"isVegan"`
	IsGlutenFree    *bool           `json:"isGlutenFree"`
	Category        *string         `json:"category"`
	ThumbnailQuery  *string         `json:"thumbnailQuery"`
}

// ParseExtraction 解碼並驗證模型輸出，任何錯誤都以 EXTRACTION_PARSE_ERROR 返回
func ParseExtraction(content string) (*Extraction, error) {
	body, ok := common.ExtractJSONObject(content)
	if !ok {
		return nil, common.ExtractionParse("model output contains no JSON object", nil)
	}

	var raw rawExtraction
	if err := common.ParseJSON(body, &raw); err != nil {
		return nil, common.ExtractionParse("model output is not valid JSON", err)
	}

	out, err := raw.validate()
	if err != nil {
		return nil, common.ExtractionParse("model output failed schema validation", err)
	}
	return out, nil
}

func (r *rawExtraction) validate() (*Extraction, error) {
	out := &Extraction{Category: CategoryMainCourse}

	if r.Title == nil || strings.TrimSpace(*r.Title) == "" {
		return nil, fmt.Errorf("title is required")
	}
	out.Title = strings.TrimSpace(*r.Title)

	if r.Servings == nil {
		return nil, fmt.Errorf("servings is required")
	}
	servings, err := positiveInt(*r.Servings)
	if err != nil {
		return nil, fmt.Errorf("servings: %w", err)
	}
	out.Servings = servings

	if len(r.Ingredients) == 0 {
		return nil, fmt.Errorf("at least one ingredient is required")
	}
	for i, ing := range r.Ingredients {
		name := strings.TrimSpace(ing.Name)
		if name == "" {
			return nil, fmt.Errorf("ingredients[%d].name is required", i)
		}
		if !ing.Quantity.Set {
			return nil, fmt.Errorf("ingredients[%d].quantity is required", i)
		}
		unit := ""
		if ing.Unit != nil {
			unit = strings.TrimSpace(*ing.Unit)
		}
		out.Ingredients = append(out.Ingredients, Ingredient{
			Name:     name,
			Quantity: strings.TrimSpace(ing.Quantity.Value),
			Unit:     unit,
		})
	}

	steps, err := normalizeSteps(r.Steps)
	if err != nil {
		return nil, err
	}
	out.Steps = steps

	if r.Nutrition != nil {
		n, err := r.Nutrition.toNutrition()
		if err != nil {
			return nil, fmt.Errorf("nutrition: %w", err)
		}
		out.Nutrition = n
	}

	if r.CookTimeMinutes != nil {
		f, err := r.CookTimeMinutes.Float64()
		if err != nil || f < 0 {
			return nil, fmt.Errorf("cookTimeMinutes must be a non-negative number")
		}
		minutes := int(math.Round(f))
		out.CookTimeMinutes = &minutes
	}

	if r.Difficulty != nil && *r.Difficulty != "" {
		d := Difficulty(strings.ToLower(strings.TrimSpace(*r.Difficulty)))
		if !d.Valid() {
			return nil, fmt.Errorf("unknown difficulty %q", *r.Difficulty)
		}
		out.Difficulty = d
	}

	if r.IsVegetarian != nil {
		out.IsVegetarian = *r.IsVegetarian
	}
	if r.IsVegan != nil {
		out.IsVegan = *r.IsVegan
	}
	if r.IsGlutenFree != nil {
		out.IsGlutenFree = *r.IsGlutenFree
	}

	if r.Category != nil && *r.Category != "" {
		c := Category(strings.TrimSpace(*r.Category))
		if !c.Valid() {
			return nil, fmt.Errorf("unknown category %q", *r.Category)
		}
		out.Category = c
	}

	if r.ThumbnailQuery != nil {
		out.ThumbnailQuery = strings.TrimSpace(*r.ThumbnailQuery)
	}

	return out, nil
}

// normalizeSteps 依模型給的 order 穩定排序後重新編號為 1..n，
// 並移除沒有出現在描述中的強調詞
func normalizeSteps(raw []rawStep) ([]Step, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("at least one step is required")
	}

	type indexed struct {
		order float64
		step  rawStep
	}
	items := make([]indexed, 0, len(raw))
	for i, s := range raw {
		if strings.TrimSpace(s.Description) == "" {
			return nil, fmt.Errorf("steps[%d].description is required", i)
		}
		order := float64(i + 1)
		if s.Order != nil {
			f, err := s.Order.Float64()
			if err != nil {
				return nil, fmt.Errorf("steps[%d].order: %w", i, err)
			}
			order = f
		}
		items = append(items, indexed{order: order, step: s})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].order < items[j].order })

	steps := make([]Step, 0, len(items))
	for i, it := range items {
		desc := strings.TrimSpace(it.step.Description)
		steps = append(steps, Step{
			Order:            i + 1,
			Description:      desc,
			HighlightedWords: filterHighlights(desc, it.step.HighlightedWords),
		})
	}
	return steps, nil
}

func filterHighlights(description string, words []string) []string {
	lower := strings.ToLower(description)
	out := make([]string, 0, len(words))
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		key := strings.ToLower(w)
		if w == "" || seen[key] || !strings.Contains(lower, key) {
			continue
		}
		seen[key] = true
		out = append(out, w)
	}
	return out
}

func (n *rawNutrition) toNutrition() (*Nutrition, error) {
	out := &Nutrition{}
	fields := []struct {
		name string
		src  *json.Number
		dst  **float64
	}{
		{"calories", n.Calories, &out.Calories},
		{"protein", n.Protein, &out.Protein},
		{"carbs", n.Carbs, &out.Carbs},
		{"fat", n.Fat, &out.Fat},
	}
	empty := true
	for _, f := range fields {
		if f.src == nil {
			continue
		}
		v, err := f.src.Float64()
		if err != nil || v < 0 {
			return nil, fmt.Errorf("%s must be a non-negative number", f.name)
		}
		*f.dst = &v
		empty = false
	}
	if empty {
		return nil, nil
	}
	return out, nil
}

func positiveInt(n json.Number) (int, error) {
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("must be a number")
	}
	v := int(math.Round(f))
	if v < 1 {
		return 0, fmt.Errorf("must be at least 1")
	}
	return v, nil
}
