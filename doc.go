// Package bookrec 是一个图书推荐引擎。
//
// 设计要点：
// - Generation-first: 每次训练产出一代不可变模型（内容相似、Item KNN、隐式 ALS、评分统计），原子发布
// - Pipeline-first: 混合推荐通过 Node 串联（Recall → Rank → Filter/ReRank → TopN），后处理节点可配置
// - Store 可替换: 快照发布与结果缓存共用 core.Store（内存 / Redis）
package bookrec

import (
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/engine"
	"github.com/rushteam/bookrec/pipeline"
)

// 轻量 facade：便于用户直接 import "bookrec" 使用核心抽象。
type (
	Engine     = engine.Engine
	Config     = engine.Config
	BookResult = engine.BookResult
	RatingStat = engine.RatingStat
	Status     = engine.Status

	Snapshot       = core.Snapshot
	RatingRecord   = core.RatingRecord
	CatalogEntry   = core.CatalogEntry
	SnapshotSource = core.SnapshotSource

	Pipeline = pipeline.Pipeline
	Node     = pipeline.Node
	Kind     = pipeline.Kind
)

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

// New 创建推荐引擎，等价于 engine.New。
func New(cfg *Config, src SnapshotSource, opts ...engine.Option) (*Engine, error) {
	return engine.New(cfg, src, opts...)
}

// DefaultConfig 返回默认引擎配置。
func DefaultConfig() *Config { return engine.DefaultConfig() }
