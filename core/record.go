package core

import (
	"context"
	"math"
	"sync"

	"github.com/go-playground/validator/v10"
)

// RatingRecord 是一条显式评分：(user_id, book_id, rating ∈ [0,5])。
// (user_id, book_id) 的唯一性由上游存储保证，引擎不做去重。
type RatingRecord struct {
	UserID string  `json:"user_id" yaml:"user_id" validate:"required"`
	BookID string  `json:"book_id" yaml:"book_id" validate:"required"`
	Rating float64 `json:"rating" yaml:"rating" validate:"gte=0,lte=5"`
}

// CatalogEntry 是一本书的目录元信息。在一代模型的生命周期内不可变。
type CatalogEntry struct {
	BookID string   `json:"id" yaml:"id" validate:"required"`
	Title  string   `json:"title" yaml:"title" validate:"required"`
	Author string   `json:"author" yaml:"author"`
	Genres []string `json:"genres" yaml:"genres"`
}

// Snapshot 是一次训练消费的两份表格数据。
type Snapshot struct {
	Ratings []RatingRecord `json:"ratings" yaml:"ratings"`
	Catalog []CatalogEntry `json:"catalog" yaml:"catalog"`
}

// SnapshotSource 是评分/目录快照的领域接口，由 source 包实现（文件、SQL、Redis 等）。
type SnapshotSource interface {
	// Name 返回数据源名称（用于日志/监控）
	Name() string

	// Load 读取一次完整快照
	Load(ctx context.Context) (*Snapshot, error)
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate 在加载边界校验快照，拒绝畸形行，避免错误深入到数值计算内部。
//   - 评分行：id 非空，rating 在 [0,5] 且不是 NaN
//   - 目录行：id、title 非空，id 不重复
func (s *Snapshot) Validate() error {
	if s == nil {
		return InvalidInputError(ModuleSource, "snapshot is nil")
	}
	v := getValidator()
	for i := range s.Ratings {
		r := &s.Ratings[i]
		if math.IsNaN(r.Rating) {
			return InvalidInputError(ModuleSource, "rating row %d: rating is NaN", i)
		}
		if err := v.Struct(r); err != nil {
			return InvalidInputError(ModuleSource, "rating row %d (user %q, book %q): %v", i, r.UserID, r.BookID, err)
		}
	}
	seen := make(map[string]int, len(s.Catalog))
	for i := range s.Catalog {
		c := &s.Catalog[i]
		if err := v.Struct(c); err != nil {
			return InvalidInputError(ModuleSource, "catalog row %d (book %q): %v", i, c.BookID, err)
		}
		if prev, ok := seen[c.BookID]; ok {
			return InvalidInputError(ModuleSource, "catalog row %d: duplicate book %q (first seen at row %d)", i, c.BookID, prev)
		}
		seen[c.BookID] = i
	}
	return nil
}
