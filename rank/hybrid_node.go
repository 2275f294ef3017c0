package rank

import (
	"context"
	"sort"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/utils"
	"github.com/rushteam/bookrec/recall"
)

// Predictor 是协同过滤的点预测接口（recall.ItemKNN 即为默认实现）。
type Predictor interface {
	Predict(userID, bookID string) float64
}

// RatingHistory 返回用户在全量快照中的评分记录。
type RatingHistory interface {
	RatingsOf(userID string) []core.RatingRecord
}

// 写入 item.Features 的信号名
const (
	FeatureCollaborative = "collaborative"
	FeatureContent       = "content"
)

// 写入 rctx.Labels 的用户分群：目录内没有评分的用户为 cold_start
const (
	LabelUserSegment = "user_segment"
	SegmentColdStart = "cold_start"
	SegmentActive    = "active"
)

// HybridNode 是混合打分 Node：
//
//	score = 0.6·collaborative + 0.4·content
//
//   - collaborative：Predictor 对 (user, book) 的点预测
//   - content：用户内容偏好向量在该书上的取值（见 recall.ContentModel.Affinity）
//   - 写入 features：collaborative / content；labels：rank_model
//   - 在 rctx 上写入 user_segment，后续节点的表达式可按分群过滤
//   - 按分数降序稳定排序，同分保持上游（目录）顺序
//
// 未知用户不会报错：协同分退化为全局均值，内容分为 0。
type HybridNode struct {
	Collaborative Predictor
	Content       *recall.ContentModel
	Books         *recall.BookIndex
	History       RatingHistory
}

func (n *HybridNode) Name() string        { return "rank.hybrid" }
func (n *HybridNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *HybridNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	userID := ""
	if rctx != nil {
		userID = rctx.UserID
	}
	affinity, rated := n.affinity(userID)
	if rctx != nil {
		segment := SegmentActive
		if rated == 0 {
			segment = SegmentColdStart
		}
		rctx.PutLabel(LabelUserSegment, utils.NewLabel(segment, "rank"))
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		idx, ok := n.Books.Index(it.ID)
		if !ok {
			return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvariantViolation,
				"rank: candidate "+it.ID+" is not in the catalog")
		}
		collab := n.Collaborative.Predict(userID, it.ID)
		content := affinity[idx]

		if it.Features == nil {
			it.Features = make(map[string]float64, 2)
		}
		it.Features[FeatureCollaborative] = collab
		it.Features[FeatureContent] = content
		it.Score = core.HybridCollaborativeWeight*collab + core.HybridContentWeight*content
		it.PutLabel("rank_model", utils.NewLabel("hybrid", "rank"))
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		return items[i].Score > items[j].Score
	})
	return items, nil
}

// affinity 只统计目录中存在的书，其余评分既不贡献分数也不计入条数。
func (n *HybridNode) affinity(userID string) ([]float64, int) {
	var rated []recall.ScoredBook
	if n.History != nil {
		for _, r := range n.History.RatingsOf(userID) {
			if idx, ok := n.Books.Index(r.BookID); ok {
				rated = append(rated, recall.ScoredBook{Index: idx, Score: r.Rating})
			}
		}
	}
	return n.Content.Affinity(rated), len(rated)
}
