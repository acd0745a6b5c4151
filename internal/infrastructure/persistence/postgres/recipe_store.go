package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cookclip/internal/core/recipe"
	"cookclip/internal/pkg/common"

	"github.com/jackc/pgx/v5"
)

// RecipeStore 以 recipes 資料表作為食譜快取，url_hash 唯一
type RecipeStore struct {
	db *DB
}

var _ recipe.Store = (*RecipeStore)(nil)

// NewRecipeStore 創建 Postgres 食譜儲存
func NewRecipeStore(db *DB) *RecipeStore {
	return &RecipeStore{db: db}
}

const recipeColumns = `id::text, url, url_hash, platform, title, thumbnail_url, servings,
	ingredients, steps, nutrition, cook_time_minutes, difficulty,
	is_vegetarian, is_vegan, is_gluten_free, category, raw_transcript,
	created_at, updated_at`

func scanRecipe(row pgx.Row) (*recipe.Recipe, error) {
	var (
		r                        recipe.Recipe
		ingredients, steps, nutr []byte
	)
	err := row.Scan(
		&r.ID, &r.URL, &r.Fingerprint, &r.Platform, &r.Title, &r.ThumbnailURL, &r.Servings,
		&ingredients, &steps, &nutr, &r.CookTimeMinutes, &r.Difficulty,
		&r.IsVegetarian, &r.IsVegan, &r.IsGlutenFree, &r.Category, &r.RawTranscript,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(ingredients, &r.Ingredients); err != nil {
		return nil, fmt.Errorf("decode ingredients: %w", err)
	}
	if err := json.Unmarshal(steps, &r.Steps); err != nil {
		return nil, fmt.Errorf("decode steps: %w", err)
	}
	if len(nutr) > 0 {
		if err := json.Unmarshal(nutr, &r.Nutrition); err != nil {
			return nil, fmt.Errorf("decode nutrition: %w", err)
		}
	}
	return &r, nil
}

// GetByFingerprint 以指紋查詢
func (s *RecipeStore) GetByFingerprint(ctx context.Context, fingerprint string) (*recipe.Recipe, error) {
	r, err := scanRecipe(s.db.Pool.QueryRow(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE url_hash = $1`, fingerprint))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, recipe.ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

// GetByID 以 ID 查詢，非 UUID 直接視為不存在
func (s *RecipeStore) GetByID(ctx context.Context, id string) (*recipe.Recipe, error) {
	if !common.IsUUID(id) {
		return nil, recipe.ErrNotFound
	}
	r, err := scanRecipe(s.db.Pool.QueryRow(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, recipe.ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

// GetByIDs 批次查詢，結果依輸入順序排列
func (s *RecipeStore) GetByIDs(ctx context.Context, ids []string) ([]*recipe.Recipe, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if common.IsUUID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return []*recipe.Recipe{}, nil
	}

	rows, err := s.db.Pool.Query(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE id = ANY($1::uuid[])`, valid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*recipe.Recipe, len(valid))
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		byID[r.ID] = r
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orderByIDs(valid, byID), nil
}

func orderByIDs(ids []string, byID map[string]*recipe.Recipe) []*recipe.Recipe {
	out := make([]*recipe.Recipe, 0, len(byID))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, r)
		}
	}
	return out
}

// Put 寫入新食譜；url_hash 衝突時返回 recipe.ErrConflict
func (s *RecipeStore) Put(ctx context.Context, r *recipe.Recipe) (*recipe.Recipe, error) {
	ingredients, err := json.Marshal(r.Ingredients)
	if err != nil {
		return nil, err
	}
	steps, err := json.Marshal(r.Steps)
	if err != nil {
		return nil, err
	}
	var nutrition []byte
	if r.Nutrition != nil {
		if nutrition, err = json.Marshal(r.Nutrition); err != nil {
			return nil, err
		}
	}

	stored := *r
	if stored.ID == "" {
		stored.ID = common.GenerateUUID()
	}

	err = s.db.Pool.QueryRow(ctx, `
		INSERT INTO recipes (id, url, url_hash, platform, title, thumbnail_url, servings,
			ingredients, steps, nutrition, cook_time_minutes, difficulty,
			is_vegetarian, is_vegan, is_gluten_free, category, raw_transcript)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING created_at, updated_at
	`,
		stored.ID, stored.URL, stored.Fingerprint, stored.Platform, stored.Title, stored.ThumbnailURL, stored.Servings,
		ingredients, steps, nutrition, stored.CookTimeMinutes, stored.Difficulty,
		stored.IsVegetarian, stored.IsVegan, stored.IsGlutenFree, stored.Category, stored.RawTranscript,
	).Scan(&stored.CreatedAt, &stored.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, recipe.ErrConflict
		}
		return nil, err
	}
	return &stored, nil
}
