package grocery

import (
	"context"
	"sync"

	"cookclip/internal/core/mealplan"
	"cookclip/internal/core/recipe"
	"cookclip/internal/pkg/common"

	"go.uber.org/zap"
)

// ListStore 購物清單持久化；不存在的清單返回空清單
type ListStore interface {
	Load(ctx context.Context, listID string) ([]Item, error)
	Save(ctx context.Context, listID string, items []Item) error
	Delete(ctx context.Context, listID string) error
}

// RecipeLookup 批次查詢食譜
type RecipeLookup interface {
	GetByIDs(ctx context.Context, ids []string) ([]*recipe.Recipe, error)
}

// PlanLookup 查詢菜單
type PlanLookup interface {
	Get(ctx context.Context, id string) (*mealplan.MealPlan, error)
}

// Lists 購物清單倉儲，同一清單的修改依序執行
type Lists struct {
	store   ListStore
	recipes RecipeLookup
	plans   PlanLookup
	merger  SmartMerger

	locksMu sync.Mutex
	locks   map[string]*listLock
}

// listLock 單一清單的鎖，refs 歸零時從 map 移除
type listLock struct {
	mu   sync.Mutex
	refs int
}

// NewLists 創建購物清單倉儲
func NewLists(store ListStore, recipes RecipeLookup, plans PlanLookup, merger SmartMerger) *Lists {
	return &Lists{
		store:   store,
		recipes: recipes,
		plans:   plans,
		merger:  merger,
		locks:   make(map[string]*listLock),
	}
}

func (l *Lists) lock(listID string) func() {
	l.locksMu.Lock()
	ll, ok := l.locks[listID]
	if !ok {
		ll = &listLock{}
		l.locks[listID] = ll
	}
	ll.refs++
	l.locksMu.Unlock()

	ll.mu.Lock()
	return func() {
		ll.mu.Unlock()

		l.locksMu.Lock()
		ll.refs--
		if ll.refs == 0 {
			delete(l.locks, listID)
		}
		l.locksMu.Unlock()
	}
}

func (l *Lists) load(ctx context.Context, listID string) ([]Item, error) {
	if listID == "" {
		return nil, common.ValidationFailed("listId is required")
	}
	items, err := l.store.Load(ctx, listID)
	if err != nil {
		return nil, common.Internal("failed to load grocery list", err)
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

func (l *Lists) save(ctx context.Context, listID string, items []Item) ([]Item, error) {
	if err := l.store.Save(ctx, listID, items); err != nil {
		return nil, common.Internal("failed to save grocery list", err)
	}
	return items, nil
}

// mutate 在清單鎖內讀取、修改並寫回
func (l *Lists) mutate(ctx context.Context, listID string, fn func([]Item) ([]Item, error)) ([]Item, error) {
	unlock := l.lock(listID)
	defer unlock()

	items, err := l.load(ctx, listID)
	if err != nil {
		return nil, err
	}
	next, err := fn(items)
	if err != nil {
		return nil, err
	}
	return l.save(ctx, listID, next)
}

// Items 返回清單內容
func (l *Lists) Items(ctx context.Context, listID string) ([]Item, error) {
	return l.load(ctx, listID)
}

// AddFromRecipes 合併食譜的食材
func (l *Lists) AddFromRecipes(ctx context.Context, listID string, recipeIDs []string) ([]Item, error) {
	if len(recipeIDs) == 0 {
		return nil, common.ValidationFailed("recipeIds must contain at least one id")
	}
	recipes, err := l.recipes.GetByIDs(ctx, recipeIDs)
	if err != nil {
		return nil, common.Internal("failed to load recipes", err)
	}
	if len(recipes) == 0 {
		return nil, common.ErrNoRecipesFound
	}

	return l.mutate(ctx, listID, func(items []Item) ([]Item, error) {
		return Aggregate(items, FromRecipes(recipes)), nil
	})
}

// AddFromMealPlan 合併菜單中每一餐的食材
func (l *Lists) AddFromMealPlan(ctx context.Context, listID, planID string) ([]Item, error) {
	plan, err := l.plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	recipes, err := l.recipes.GetByIDs(ctx, plan.RecipeIDs())
	if err != nil {
		return nil, common.Internal("failed to load recipes", err)
	}
	byID := make(map[string]*recipe.Recipe, len(recipes))
	for _, r := range recipes {
		byID[r.ID] = r
	}

	return l.mutate(ctx, listID, func(items []Item) ([]Item, error) {
		return Aggregate(items, FromMealPlan(plan, byID)), nil
	})
}

// SmartMerge 只送出未勾選項目；失敗時清單保持不變，已勾選項目原樣附加在後
func (l *Lists) SmartMerge(ctx context.Context, listID string) ([]Item, error) {
	return l.mutate(ctx, listID, func(items []Item) ([]Item, error) {
		var unchecked, checked []Item
		for _, it := range items {
			if it.Checked {
				checked = append(checked, it)
			} else {
				unchecked = append(unchecked, it)
			}
		}
		if len(unchecked) == 0 {
			return items, nil
		}

		inputs := make([]MergeInput, len(unchecked))
		for i, it := range unchecked {
			inputs[i] = MergeInput{Name: it.Name, Quantity: it.Quantity, Unit: it.Unit}
		}

		merged, err := l.merger.Merge(ctx, inputs)
		if err != nil {
			common.LogWarn("購物清單智慧合併失敗，清單未變更", zap.String("list_id", listID), zap.Error(err))
			return nil, err
		}

		out := make([]Item, 0, len(merged)+len(checked))
		for _, m := range merged {
			ids := []string{}
			for _, idx := range m.Sources {
				ids = unionIDs(ids, unchecked[idx].RecipeIDs)
			}
			out = append(out, Item{
				ID:        common.GenerateUUID(),
				Name:      m.Name,
				Quantity:  m.Quantity,
				Unit:      m.Unit,
				RecipeIDs: ids,
				Category:  m.Category,
			})
		}
		return append(out, checked...), nil
	})
}

// Toggle 切換勾選狀態
func (l *Lists) Toggle(ctx context.Context, listID, itemID string) ([]Item, error) {
	return l.mutate(ctx, listID, func(items []Item) ([]Item, error) {
		for i := range items {
			if items[i].ID == itemID {
				items[i].Checked = !items[i].Checked
				return items, nil
			}
		}
		return nil, ErrItemNotFound
	})
}

// Remove 刪除單一項目
func (l *Lists) Remove(ctx context.Context, listID, itemID string) ([]Item, error) {
	return l.mutate(ctx, listID, func(items []Item) ([]Item, error) {
		for i := range items {
			if items[i].ID == itemID {
				return append(items[:i:i], items[i+1:]...), nil
			}
		}
		return nil, ErrItemNotFound
	})
}

// ClearChecked 移除所有已勾選項目
func (l *Lists) ClearChecked(ctx context.Context, listID string) ([]Item, error) {
	return l.mutate(ctx, listID, func(items []Item) ([]Item, error) {
		out := make([]Item, 0, len(items))
		for _, it := range items {
			if !it.Checked {
				out = append(out, it)
			}
		}
		return out, nil
	})
}

// ClearAll 刪除整份清單
func (l *Lists) ClearAll(ctx context.Context, listID string) error {
	if listID == "" {
		return common.ValidationFailed("listId is required")
	}
	unlock := l.lock(listID)
	defer unlock()

	if err := l.store.Delete(ctx, listID); err != nil {
		return common.Internal("failed to delete grocery list", err)
	}
	return nil
}
