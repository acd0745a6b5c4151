package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cookclip/internal/core/mealplan"
	"cookclip/internal/pkg/common"

	"github.com/jackc/pgx/v5"
)

// MealPlanStore days 欄位以 JSONB 整塊保存
type MealPlanStore struct {
	db *DB
}

var _ mealplan.Store = (*MealPlanStore)(nil)

func NewMealPlanStore(db *DB) *MealPlanStore {
	return &MealPlanStore{db: db}
}

// Save 寫入新菜單
func (s *MealPlanStore) Save(ctx context.Context, plan *mealplan.MealPlan) (*mealplan.MealPlan, error) {
	days, err := json.Marshal(plan.Days)
	if err != nil {
		return nil, err
	}

	stored := *plan
	if stored.ID == "" {
		stored.ID = common.GenerateUUID()
	}
	err = s.db.Pool.QueryRow(ctx, `
		INSERT INTO meal_plans (id, name, description, duration, days)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, stored.ID, stored.Name, stored.Description, stored.Duration, days).Scan(&stored.CreatedAt, &stored.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *MealPlanStore) Get(ctx context.Context, id string) (*mealplan.MealPlan, error) {
	if !common.IsUUID(id) {
		return nil, mealplan.ErrNotFound
	}

	var (
		plan mealplan.MealPlan
		days []byte
	)
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id::text, name, description, duration, days, created_at, updated_at
		FROM meal_plans
		WHERE id = $1
	`, id).Scan(&plan.ID, &plan.Name, &plan.Description, &plan.Duration, &days, &plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, mealplan.ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(days, &plan.Days); err != nil {
		return nil, fmt.Errorf("decode days: %w", err)
	}
	for i := range plan.Days {
		if plan.Days[i].Snacks == nil {
			plan.Days[i].Snacks = []mealplan.MealSlot{}
		}
	}
	return &plan, nil
}

// Update 覆蓋名稱、描述與每日安排
func (s *MealPlanStore) Update(ctx context.Context, plan *mealplan.MealPlan) error {
	if !common.IsUUID(plan.ID) {
		return mealplan.ErrNotFound
	}
	days, err := json.Marshal(plan.Days)
	if err != nil {
		return err
	}

	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE meal_plans
		SET name = $2, description = $3, duration = $4, days = $5, updated_at = $6
		WHERE id = $1
	`, plan.ID, plan.Name, plan.Description, plan.Duration, days, plan.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return mealplan.ErrNotFound
	}
	return nil
}

func (s *MealPlanStore) Delete(ctx context.Context, id string) error {
	if !common.IsUUID(id) {
		return mealplan.ErrNotFound
	}
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM meal_plans WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return mealplan.ErrNotFound
	}
	return nil
}
