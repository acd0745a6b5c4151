package grocery_test

import (
	"context"
	"errors"
	"testing"

	"cookclip/internal/core/grocery"
	"cookclip/internal/core/mealplan"
	"cookclip/internal/core/recipe"
	"cookclip/internal/infrastructure/persistence/memory"
	"cookclip/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMerger struct {
	calls  int
	inputs []grocery.MergeInput
	out    []grocery.MergedItem
	err    error
}

func (f *fakeMerger) Merge(_ context.Context, items []grocery.MergeInput) ([]grocery.MergedItem, error) {
	f.calls++
	f.inputs = items
	return f.out, f.err
}

type fixture struct {
	lists  *grocery.Lists
	store  *memory.GroceryListStore
	plans  *memory.MealPlanStore
	merger *fakeMerger
	planID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	recipes := memory.NewRecipeStore()
	for _, r := range []*recipe.Recipe{
		{ID: "r1", Fingerprint: "f1", Title: "Garlic Noodles", Ingredients: []recipe.Ingredient{
			{Name: "garlic cloves", Quantity: "2"},
			{Name: "noodles", Quantity: "200", Unit: "g"},
		}},
		{ID: "r2", Fingerprint: "f2", Title: "Garlic Bread", Ingredients: []recipe.Ingredient{
			{Name: "garlic", Quantity: "1"},
			{Name: "bread", Quantity: "1", Unit: "loaf"},
		}},
	} {
		_, err := recipes.Put(ctx, r)
		require.NoError(t, err)
	}

	plans := memory.NewMealPlanStore()
	plan, err := plans.Save(ctx, &mealplan.MealPlan{Duration: 2, Days: []mealplan.MealPlanDay{
		{Day: 1, Dinner: &mealplan.MealSlot{RecipeID: "r1", Servings: 1}, Snacks: []mealplan.MealSlot{}},
		{Day: 2, Dinner: &mealplan.MealSlot{RecipeID: "r1", Servings: 1}, Snacks: []mealplan.MealSlot{{RecipeID: "r2", Servings: 1}}},
	}})
	require.NoError(t, err)

	store := memory.NewGroceryListStore()
	merger := &fakeMerger{}
	return &fixture{
		lists:  grocery.NewLists(store, recipes, plans, merger),
		store:  store,
		plans:  plans,
		merger: merger,
		planID: plan.ID,
	}
}

func find(items []grocery.Item, name string) *grocery.Item {
	for i := range items {
		if items[i].Name == name {
			return &items[i]
		}
	}
	return nil
}

func TestListAddFromRecipesAndMealPlan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	items, err := f.lists.AddFromRecipes(ctx, "home", []string{"r1", "r2"})
	require.NoError(t, err)
	assert.Len(t, items, 4)

	items, err = f.lists.AddFromMealPlan(ctx, "home", f.planID)
	require.NoError(t, err)
	assert.Len(t, items, 4)
	assert.Equal(t, 6.0, find(items, "garlic cloves").Quantity)
	assert.Equal(t, 600.0, find(items, "noodles").Quantity)
	assert.Equal(t, 2.0, find(items, "bread").Quantity)

	stored, err := f.lists.Items(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, items, stored)

	other, err := f.lists.Items(ctx, "office")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestListAddErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.lists.AddFromRecipes(ctx, "home", nil)
	assert.True(t, common.HasCode(err, common.ErrCodeValidation))

	_, err = f.lists.AddFromRecipes(ctx, "home", []string{"ghost"})
	assert.True(t, common.HasCode(err, common.ErrCodeNoRecipesFound))

	_, err = f.lists.AddFromMealPlan(ctx, "home", "ghost")
	assert.ErrorIs(t, err, mealplan.ErrNotFound)

	_, err = f.lists.Items(ctx, "")
	assert.True(t, common.HasCode(err, common.ErrCodeValidation))
}

func TestListSmartMergeKeepsCheckedItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	items, err := f.lists.AddFromRecipes(ctx, "home", []string{"r1", "r2"})
	require.NoError(t, err)
	bread := find(items, "bread")
	_, err = f.lists.Toggle(ctx, "home", bread.ID)
	require.NoError(t, err)

	f.merger.out = []grocery.MergedItem{
		{Name: "Garlic", Quantity: 3, Unit: "cloves", Category: grocery.CategoryProduce, Sources: []int{0, 2}},
		{Name: "Noodles", Quantity: 200, Unit: "g", Category: grocery.CategoryGrainsBread, Sources: []int{1}},
	}

	merged, err := f.lists.SmartMerge(ctx, "home")
	require.NoError(t, err)
	require.Len(t, f.merger.inputs, 3)
	assert.Equal(t, "garlic cloves", f.merger.inputs[0].Name)
	assert.Equal(t, "noodles", f.merger.inputs[1].Name)
	assert.Equal(t, "garlic", f.merger.inputs[2].Name)

	require.Len(t, merged, 3)
	garlic := find(merged, "Garlic")
	require.NotNil(t, garlic)
	assert.Equal(t, []string{"r1", "r2"}, garlic.RecipeIDs)
	assert.Equal(t, grocery.CategoryProduce, garlic.Category)

	last := merged[len(merged)-1]
	assert.Equal(t, bread.ID, last.ID)
	assert.True(t, last.Checked)
}

func TestListSmartMergeFailureLeavesListUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	before, err := f.lists.AddFromRecipes(ctx, "home", []string{"r1", "r2"})
	require.NoError(t, err)

	f.merger.err = common.SmartMerge("smart merge call failed", errors.New("upstream 500"))
	_, err = f.lists.SmartMerge(ctx, "home")
	require.Error(t, err)
	assert.True(t, common.HasCode(err, common.ErrCodeSmartMerge))

	after, err := f.lists.Items(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestListSmartMergeSkipsWhenAllChecked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	items, err := f.lists.AddFromRecipes(ctx, "home", []string{"r2"})
	require.NoError(t, err)
	for _, it := range items {
		_, err = f.lists.Toggle(ctx, "home", it.ID)
		require.NoError(t, err)
	}

	out, err := f.lists.SmartMerge(ctx, "home")
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Zero(t, f.merger.calls)
}

func TestListToggleRemoveClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	items, err := f.lists.AddFromRecipes(ctx, "home", []string{"r1", "r2"})
	require.NoError(t, err)
	require.Len(t, items, 4)

	items, err = f.lists.Toggle(ctx, "home", items[0].ID)
	require.NoError(t, err)
	assert.True(t, items[0].Checked)

	items, err = f.lists.Remove(ctx, "home", items[1].ID)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	items, err = f.lists.ClearChecked(ctx, "home")
	require.NoError(t, err)
	assert.Len(t, items, 2)
	for _, it := range items {
		assert.False(t, it.Checked)
	}

	_, err = f.lists.Toggle(ctx, "home", "ghost")
	assert.ErrorIs(t, err, grocery.ErrItemNotFound)
	_, err = f.lists.Remove(ctx, "home", "ghost")
	assert.ErrorIs(t, err, grocery.ErrItemNotFound)

	require.NoError(t, f.lists.ClearAll(ctx, "home"))
	items, err = f.lists.Items(ctx, "home")
	require.NoError(t, err)
	assert.Empty(t, items)
}
