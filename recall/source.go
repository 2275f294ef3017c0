package recall

import (
	"context"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/utils"
)

// Source 表示一个可复用的召回源。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// CatalogRecall 是全量目录召回源：按目录顺序为每本书生成一个候选。
// 混合打分需要对整个目录打分，因此不做任何截断。
//   - Meta：title / author / genres
//   - Label：recall_source=catalog
//
// CatalogRecall 同时实现了 Source 和 Node 接口，可以直接放在 Pipeline 头部。
type CatalogRecall struct {
	Books *BookIndex
}

func (r *CatalogRecall) Name() string        { return "recall.catalog" }
func (r *CatalogRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，忽略上游 items。
func (r *CatalogRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *CatalogRecall) Recall(
	_ context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Books == nil {
		return []*core.Item{}, nil
	}
	entries := r.Books.Entries()
	out := make([]*core.Item, 0, len(entries))
	for _, e := range entries {
		it := core.NewItem(e.BookID)
		it.Meta["title"] = e.Title
		it.Meta["author"] = e.Author
		it.Meta["genres"] = e.Genres
		it.PutLabel("recall_source", utils.NewLabel("catalog", "recall"))
		out = append(out, it)
	}
	return out, nil
}
