package recipe

import (
	"testing"

	"cookclip/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validExtraction = `{
  "title": "Garlic Butter Pasta",
  "servings": 2,
  "cookTimeMinutes": 20,
  "difficulty": "easy",
  "isVegetarian": true,
  "category": "Pasta",
  "thumbnailQuery": "garlic pasta",
  "ingredients": [
    {"name": "spaghetti", "quantity": "200", "unit": "g"},
    {"name": "garlic", "quantity": 3, "unit": "cloves"},
    {"name": "salt", "quantity": "to taste", "unit": null}
  ],
  "steps": [
    {"order": 2, "description": "Toss the spaghetti with garlic butter.", "highlightedWords": ["spaghetti", "garlic", "parsley"]},
    {"order": 1, "description": "Boil the spaghetti in salted water.", "highlightedWords": ["spaghetti", "Salted"]}
  ],
  "nutrition": {"calories": 520, "protein": 14, "carbs": null}
}`

func TestParseExtractionValid(t *testing.T) {
	ext, err := ParseExtraction(validExtraction)
	require.NoError(t, err)

	assert.Equal(t, "Garlic Butter Pasta", ext.Title)
	assert.Equal(t, 2, ext.Servings)
	assert.Equal(t, CategoryPasta, ext.Category)
	assert.Equal(t, DifficultyEasy, ext.Difficulty)
	assert.True(t, ext.IsVegetarian)
	assert.False(t, ext.IsVegan)
	assert.Equal(t, "garlic pasta", ext.ThumbnailQuery)
	require.NotNil(t, ext.CookTimeMinutes)
	assert.Equal(t, 20, *ext.CookTimeMinutes)

	require.Len(t, ext.Ingredients, 3)
	assert.Equal(t, "3", ext.Ingredients[1].Quantity)
	assert.Equal(t, "", ext.Ingredients[2].Unit)

	require.Len(t, ext.Steps, 2)
	assert.Equal(t, 1, ext.Steps[0].Order)
	assert.Equal(t, "Boil the spaghetti in salted water.", ext.Steps[0].Description)
	assert.Equal(t, []string{"spaghetti", "Salted"}, ext.Steps[0].HighlightedWords)
	assert.Equal(t, 2, ext.Steps[1].Order)
	assert.Equal(t, []string{"spaghetti", "garlic"}, ext.Steps[1].HighlightedWords)

	require.NotNil(t, ext.Nutrition)
	assert.Equal(t, 520.0, *ext.Nutrition.Calories)
	assert.Nil(t, ext.Nutrition.Carbs)
}

func TestParseExtractionDefaults(t *testing.T) {
	ext, err := ParseExtraction("Here you go:\n```json\n" + `{"title":"Toast","servings":1,
		"ingredients":[{"name":"bread","quantity":"2","unit":"slices"}],
		"steps":[{"order":1,"description":"Toast the bread.","highlightedWords":["bread"]}]}` + "\n```")
	require.NoError(t, err)

	assert.Equal(t, CategoryMainCourse, ext.Category)
	assert.Empty(t, ext.Difficulty)
	assert.Nil(t, ext.CookTimeMinutes)
	assert.Nil(t, ext.Nutrition)
	assert.False(t, ext.IsVegetarian)
	assert.False(t, ext.IsVegan)
	assert.False(t, ext.IsGlutenFree)
}

func TestParseExtractionRejectsInvalidOutput(t *testing.T) {
	cases := map[string]string{
		"not json":           "I could not find a recipe in this video.",
		"broken json":        `{"title": "x", "servings": }`,
		"missing title":      `{"servings":2,"ingredients":[{"name":"a","quantity":"1"}],"steps":[{"order":1,"description":"a"}]}`,
		"missing servings":   `{"title":"x","ingredients":[{"name":"a","quantity":"1"}],"steps":[{"order":1,"description":"a"}]}`,
		"zero servings":      `{"title":"x","servings":0,"ingredients":[{"name":"a","quantity":"1"}],"steps":[{"order":1,"description":"a"}]}`,
		"no ingredients":     `{"title":"x","servings":2,"ingredients":[],"steps":[{"order":1,"description":"a"}]}`,
		"missing steps":      `{"title":"x","servings":2,"ingredients":[{"name":"a","quantity":"1"}]}`,
		"empty step":         `{"title":"x","servings":2,"ingredients":[{"name":"a","quantity":"1"}],"steps":[{"order":1,"description":" "}]}`,
		"unknown difficulty": `{"title":"x","servings":2,"difficulty":"extreme","ingredients":[{"name":"a","quantity":"1"}],"steps":[{"order":1,"description":"a"}]}`,
		"unknown category":   `{"title":"x","servings":2,"category":"Pizza","ingredients":[{"name":"a","quantity":"1"}],"steps":[{"order":1,"description":"a"}]}`,
		"bad flag type":      `{"title":"x","servings":2,"isVegan":"yes","ingredients":[{"name":"a","quantity":"1"}],"steps":[{"order":1,"description":"a"}]}`,
		"trailing data":      `{"title":"x","servings":2,"ingredients":[{"name":"a","quantity":"1"}],"steps":[{"order":1,"description":"a"}]} {"title":"y"}`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseExtraction(content)
			require.Error(t, err)
			assert.True(t, common.HasCode(err, common.ErrCodeExtractionParse), "got %v", err)
		})
	}
}

func TestCategoryAndDifficultyValid(t *testing.T) {
	assert.Len(t, Categories, 13)
	assert.True(t, CategoryMainCourse.Valid())
	assert.False(t, Category("Pizza").Valid())
	assert.True(t, DifficultyHard.Valid())
	assert.False(t, Difficulty("").Valid())
}
