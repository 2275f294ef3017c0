package engine

import (
	"fmt"

	"github.com/rushteam/bookrec/filter"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/conv"
	"github.com/rushteam/bookrec/rank"
	"github.com/rushteam/bookrec/recall"
	"github.com/rushteam/bookrec/rerank"
)

// nodeFactory 返回绑定到某一代模型的 Node 工厂。
//
// 可配置的后处理节点：
//   - filter.expr        {expr: "<CEL>", invert: false}
//   - filter.blacklist   {book_ids: [...]}
//   - filter.rated       {}（去掉用户已评过的书）
//   - rerank.diversity   {key: author, max_per_key: 1}
//   - rerank.topn        {n: 10}
func nodeFactory(g *generation) *pipeline.NodeFactory {
	f := pipeline.NewNodeFactory()
	f.Register("filter.expr", buildExprFilter)
	f.Register("filter.blacklist", buildBlacklistFilter)
	f.Register("filter.rated", func(map[string]any) (pipeline.Node, error) {
		return &filter.FilterNode{Filters: []filter.Filter{&filter.RatedFilter{Lookup: g}}}, nil
	})
	f.Register("rerank.diversity", buildDiversityNode)
	f.Register("rerank.topn", buildTopNNode)
	return f
}

func buildExprFilter(cfg map[string]any) (pipeline.Node, error) {
	expr := conv.ConfigGet(cfg, "expr", "")
	if expr == "" {
		return nil, fmt.Errorf("expr is required")
	}
	ef, err := filter.NewExprFilter(expr, conv.ConfigGet(cfg, "invert", false))
	if err != nil {
		return nil, err
	}
	return &filter.FilterNode{Filters: []filter.Filter{ef}}, nil
}

func buildBlacklistFilter(cfg map[string]any) (pipeline.Node, error) {
	ids := conv.SliceAnyToString(cfg["book_ids"])
	return &filter.FilterNode{Filters: []filter.Filter{&filter.BlacklistFilter{BookIDs: ids}}}, nil
}

func buildDiversityNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.Diversity{
		Key:       conv.ConfigGet(cfg, "key", "author"),
		MaxPerKey: int(conv.ConfigGetInt64(cfg, "max_per_key", 1)),
	}, nil
}

func buildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.TopNNode{N: int(conv.ConfigGetInt64(cfg, "n", 0))}, nil
}

// buildHybridPipeline 组装混合推荐链路：
//
//	recall.catalog → rank.hybrid → [post_process...] → rerank.topn
func buildHybridPipeline(cfg *Config, g *generation) (*pipeline.Pipeline, error) {
	post, err := pipeline.BuildNodes(cfg.PostProcess, nodeFactory(g))
	if err != nil {
		return nil, err
	}
	nodes := make([]pipeline.Node, 0, len(post)+3)
	nodes = append(nodes,
		&recall.CatalogRecall{Books: g.books},
		&rank.HybridNode{
			Collaborative: g.collab,
			Content:       g.content,
			Books:         g.books,
			History:       g,
		},
	)
	nodes = append(nodes, post...)
	nodes = append(nodes, &rerank.TopNNode{})
	return &pipeline.Pipeline{Nodes: nodes}, nil
}
