package memory

import (
	"context"
	"testing"

	"cookclip/internal/core/grocery"
	"cookclip/internal/core/mealplan"
	"cookclip/internal/core/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipeStorePutAndConflict(t *testing.T) {
	ctx := context.Background()
	s := NewRecipeStore()

	saved, err := s.Put(ctx, &recipe.Recipe{Fingerprint: "abc", Title: "Soup",
		Ingredients: []recipe.Ingredient{{Name: "leek"}}})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())

	_, err = s.Put(ctx, &recipe.Recipe{Fingerprint: "abc", Title: "Other"})
	assert.ErrorIs(t, err, recipe.ErrConflict)

	got, err := s.GetByFingerprint(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "Soup", got.Title)

	// 返回值是拷貝
	got.Ingredients[0].Name = "changed"
	again, err := s.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "leek", again.Ingredients[0].Name)

	_, err = s.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, recipe.ErrNotFound)
}

func TestRecipeStoreGetByIDsKeepsOrder(t *testing.T) {
	ctx := context.Background()
	s := NewRecipeStore()
	a, _ := s.Put(ctx, &recipe.Recipe{Fingerprint: "a", Title: "A"})
	b, _ := s.Put(ctx, &recipe.Recipe{Fingerprint: "b", Title: "B"})

	got, err := s.GetByIDs(ctx, []string{b.ID, "ghost", a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].Title)
	assert.Equal(t, "A", got[1].Title)
}

func TestMealPlanStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMealPlanStore()

	saved, err := s.Save(ctx, &mealplan.MealPlan{Name: "1-Day Meal Plan", Duration: 1,
		Days: []mealplan.MealPlanDay{{Day: 1, Snacks: []mealplan.MealSlot{}}}})
	require.NoError(t, err)

	saved.Days[0].Dinner = &mealplan.MealSlot{RecipeID: "r1", Servings: 2}
	require.NoError(t, s.Update(ctx, saved))

	got, err := s.Get(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Days[0].Dinner)
	assert.Equal(t, saved.CreatedAt, got.CreatedAt)

	assert.ErrorIs(t, s.Update(ctx, &mealplan.MealPlan{ID: "missing"}), mealplan.ErrNotFound)
	require.NoError(t, s.Delete(ctx, saved.ID))
	assert.ErrorIs(t, s.Delete(ctx, saved.ID), mealplan.ErrNotFound)
}

func TestGroceryListStore(t *testing.T) {
	ctx := context.Background()
	s := NewGroceryListStore()

	items, err := s.Load(ctx, "new")
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, s.Save(ctx, "home", []grocery.Item{{ID: "1", Name: "garlic", Quantity: 2, RecipeIDs: []string{"r1"}}}))
	items, err = s.Load(ctx, "home")
	require.NoError(t, err)
	require.Len(t, items, 1)

	items[0].RecipeIDs[0] = "changed"
	reloaded, _ := s.Load(ctx, "home")
	assert.Equal(t, "r1", reloaded[0].RecipeIDs[0])

	require.NoError(t, s.Delete(ctx, "home"))
	items, _ = s.Load(ctx, "home")
	assert.Empty(t, items)
}
