package memory

import (
	"context"
	"sync"
	"time"

	"cookclip/internal/core/recipe"
	"cookclip/internal/pkg/common"
)

// RecipeStore 記憶體食譜快取，以指紋唯一
type RecipeStore struct {
	mu            sync.RWMutex
	byID          map[string]*recipe.Recipe
	byFingerprint map[string]string
	now           func() time.Time
}

var _ recipe.Store = (*RecipeStore)(nil)

// NewRecipeStore 創建記憶體食譜快取
func NewRecipeStore() *RecipeStore {
	return &RecipeStore{
		byID:          make(map[string]*recipe.Recipe),
		byFingerprint: make(map[string]string),
		now:           time.Now,
	}
}

// GetByFingerprint 以指紋查詢
func (s *RecipeStore) GetByFingerprint(_ context.Context, fingerprint string) (*recipe.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byFingerprint[fingerprint]
	if !ok {
		return nil, recipe.ErrNotFound
	}
	return cloneRecipe(s.byID[id]), nil
}

// GetByID 以 ID 查詢
func (s *RecipeStore) GetByID(_ context.Context, id string) (*recipe.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[id]
	if !ok {
		return nil, recipe.ErrNotFound
	}
	return cloneRecipe(r), nil
}

// GetByIDs 批次查詢，略過不存在的 ID
func (s *RecipeStore) GetByIDs(_ context.Context, ids []string) ([]*recipe.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*recipe.Recipe, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if r, ok := s.byID[id]; ok {
			out = append(out, cloneRecipe(r))
		}
	}
	return out, nil
}

// Put 寫入新食譜，指紋已存在時返回 ErrConflict 且不覆蓋
func (s *RecipeStore) Put(_ context.Context, r *recipe.Recipe) (*recipe.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byFingerprint[r.Fingerprint]; exists {
		return nil, recipe.ErrConflict
	}

	stored := cloneRecipe(r)
	if stored.ID == "" {
		stored.ID = common.GenerateUUID()
	}
	now := s.now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	s.byID[stored.ID] = stored
	s.byFingerprint[stored.Fingerprint] = stored.ID
	return cloneRecipe(stored), nil
}

// cloneRecipe 深拷貝，避免呼叫端修改內部狀態
func cloneRecipe(r *recipe.Recipe) *recipe.Recipe {
	if r == nil {
		return nil
	}
	c := *r
	c.Ingredients = append([]recipe.Ingredient{}, r.Ingredients...)
	c.Steps = make([]recipe.Step, len(r.Steps))
	for i, st := range r.Steps {
		st.HighlightedWords = append([]string{}, st.HighlightedWords...)
		c.Steps[i] = st
	}
	if r.Nutrition != nil {
		n := *r.Nutrition
		c.Nutrition = &n
	}
	if r.CookTimeMinutes != nil {
		m := *r.CookTimeMinutes
		c.CookTimeMinutes = &m
	}
	return &c
}
