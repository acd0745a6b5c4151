package memory

import (
	"context"
	"sync"
	"time"

	"cookclip/internal/core/mealplan"
	"cookclip/internal/pkg/common"
)

// MealPlanStore 記憶體菜單儲存
type MealPlanStore struct {
	mu    sync.RWMutex
	plans map[string]*mealplan.MealPlan
	now   func() time.Time
}

var _ mealplan.Store = (*MealPlanStore)(nil)

// NewMealPlanStore 創建記憶體菜單儲存
func NewMealPlanStore() *MealPlanStore {
	return &MealPlanStore{
		plans: make(map[string]*mealplan.MealPlan),
		now:   time.Now,
	}
}

// Save 指派 ID 與時間戳後寫入
func (s *MealPlanStore) Save(_ context.Context, plan *mealplan.MealPlan) (*mealplan.MealPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := clonePlan(plan)
	if stored.ID == "" {
		stored.ID = common.GenerateUUID()
	}
	now := s.now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	s.plans[stored.ID] = stored
	return clonePlan(stored), nil
}

func (s *MealPlanStore) Get(_ context.Context, id string) (*mealplan.MealPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[id]
	if !ok {
		return nil, mealplan.ErrNotFound
	}
	return clonePlan(p), nil
}

// Update 覆蓋既有菜單，保留 CreatedAt
func (s *MealPlanStore) Update(_ context.Context, plan *mealplan.MealPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.plans[plan.ID]
	if !ok {
		return mealplan.ErrNotFound
	}
	stored := clonePlan(plan)
	stored.CreatedAt = existing.CreatedAt
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = s.now().UTC()
	}
	s.plans[plan.ID] = stored
	return nil
}

func (s *MealPlanStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[id]; !ok {
		return mealplan.ErrNotFound
	}
	delete(s.plans, id)
	return nil
}

func clonePlan(p *mealplan.MealPlan) *mealplan.MealPlan {
	c := *p
	c.Days = make([]mealplan.MealPlanDay, len(p.Days))
	for i, d := range p.Days {
		c.Days[i] = mealplan.MealPlanDay{
			Day:       d.Day,
			Breakfast: cloneSlot(d.Breakfast),
			Lunch:     cloneSlot(d.Lunch),
			Dinner:    cloneSlot(d.Dinner),
			Snacks:    append([]mealplan.MealSlot{}, d.Snacks...),
		}
	}
	return &c
}

func cloneSlot(s *mealplan.MealSlot) *mealplan.MealSlot {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
