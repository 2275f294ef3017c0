package filter

import (
	"context"
	"fmt"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/dsl"
)

// ExprFilter 用 CEL 表达式过滤：表达式为 true 的物品被移除。
// Invert 为 true 时语义相反（表达式为 true 的物品才保留）。
//
// 示例：
//
//	item.features.content < 0.1
//	item.meta.author == "Jane Austen"
//	label.recall_source == "catalog" && rctx.top_n > 10
type ExprFilter struct {
	program *dsl.Program
	Invert  bool
}

// NewExprFilter 编译表达式；表达式无法编译时返回错误。
func NewExprFilter(expr string, invert bool) (*ExprFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("filter.expr: %w", err)
	}
	return &ExprFilter{program: prg, Invert: invert}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	ok, err := f.program.Eval(item, rctx)
	if err != nil {
		return false, err
	}
	return ok != f.Invert, nil
}
