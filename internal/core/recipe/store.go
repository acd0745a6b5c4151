package recipe

import (
	"context"

	"cookclip/internal/pkg/common"
)

var (
	// ErrNotFound 指紋或 ID 沒有對應的食譜
	ErrNotFound = common.NotFound("recipe not found")
	// ErrConflict 同一指紋已存在食譜，Put 不會覆蓋
	ErrConflict = common.Conflict("recipe fingerprint already exists", nil)
)

// Store 食譜快取，每個指紋最多一筆
type Store interface {
	// GetByFingerprint 以 URL 指紋查詢，不存在時返回 ErrNotFound
	GetByFingerprint(ctx context.Context, fingerprint string) (*Recipe, error)
	// GetByID 以 ID 查詢，不存在時返回 ErrNotFound
	GetByID(ctx context.Context, id string) (*Recipe, error)
	// GetByIDs 批次查詢，忽略不存在的 ID，結果依輸入順序
	GetByIDs(ctx context.Context, ids []string) ([]*Recipe, error)
	// Put 寫入新食譜並返回含 ID 與時間戳的副本；指紋重複時返回 ErrConflict
	Put(ctx context.Context, r *Recipe) (*Recipe, error)
}
