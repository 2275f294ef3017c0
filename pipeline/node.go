package pipeline

import (
	"context"

	"github.com/rushteam/bookrec/core"
)

// Kind 用于标记 Node 类型，方便观测/治理/编排（例如按阶段打点）。
type Kind string

const (
	KindRecall      Kind = "recall"      // 召回阶段：生成候选集
	KindFilter      Kind = "filter"      // 过滤阶段：剔除不符合约束的候选
	KindRank        Kind = "rank"        // 排序阶段：对候选打分并排序
	KindReRank      Kind = "rerank"      // 重排阶段：在排序结果上做多样性/业务调优
	KindPostProcess Kind = "postprocess" // 后处理阶段：补充特征或最终结果修饰
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用“输入 items -> 输出 items”的形态：Recall 生成候选，Rank 打分，Filter 截断，ReRank 调整顺序。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}

// ProcessFunc 是 Node.Process 的函数形态。
type ProcessFunc func(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) ([]*core.Item, error)

// FuncNode 把一个函数包装成 Node，便于组装临时步骤和测试。
type FuncNode struct {
	NodeName string
	NodeKind Kind
	Fn       ProcessFunc
}

func (n *FuncNode) Name() string { return n.NodeName }
func (n *FuncNode) Kind() Kind   { return n.NodeKind }

func (n *FuncNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Fn == nil {
		return items, nil
	}
	return n.Fn(ctx, rctx, items)
}
