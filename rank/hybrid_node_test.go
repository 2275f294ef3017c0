package rank

import (
	"context"
	"math"
	"testing"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/recall"
)

type fixedPredictor map[string]float64

func (p fixedPredictor) Predict(_, bookID string) float64 { return p[bookID] }

type historyMap map[string][]core.RatingRecord

func (h historyMap) RatingsOf(userID string) []core.RatingRecord { return h[userID] }

func hybridCatalog() []core.CatalogEntry {
	return []core.CatalogEntry{
		{BookID: "b1", Title: "Dune", Author: "Frank Herbert", Genres: []string{"scifi"}},
		{BookID: "b2", Title: "Dune Messiah", Author: "Frank Herbert", Genres: []string{"scifi"}},
		{BookID: "b3", Title: "Emma", Author: "Jane Austen", Genres: []string{"romance"}},
	}
}

func newHybrid(pred fixedPredictor, hist historyMap) (*HybridNode, *recall.CatalogRecall) {
	books := recall.NewBookIndex(hybridCatalog())
	return &HybridNode{
		Collaborative: pred,
		Content:       recall.NewContentModel(books),
		Books:         books,
		History:       hist,
	}, &recall.CatalogRecall{Books: books}
}

func ids(items []*core.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestHybridNodeNoRatingsFollowsCollaborative(t *testing.T) {
	node, src := newHybrid(fixedPredictor{"b1": 2, "b2": 4, "b3": 3}, historyMap{})
	items, _ := src.Recall(context.Background(), nil)

	rctx := &core.RecommendContext{UserID: "new"}
	out, err := node.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if lbl, ok := rctx.GetLabel(LabelUserSegment); !ok || lbl.Value != SegmentColdStart {
		t.Errorf("user_segment = %+v, %v", lbl, ok)
	}
	want := []string{"b2", "b3", "b1"}
	for i, id := range ids(out) {
		if id != want[i] {
			t.Fatalf("order = %v, want %v", ids(out), want)
		}
	}
	for _, it := range out {
		if it.Features[FeatureContent] != 0 {
			t.Errorf("%s content = %f, want 0", it.ID, it.Features[FeatureContent])
		}
		if math.Abs(it.Score-0.6*it.Features[FeatureCollaborative]) > 1e-12 {
			t.Errorf("%s score = %f", it.ID, it.Score)
		}
	}
}

func TestHybridNodeBlendsContent(t *testing.T) {
	hist := historyMap{"u1": {
		{UserID: "u1", BookID: "b1", Rating: 5},
		// 目录外的评分既不贡献也不计数
		{UserID: "u1", BookID: "ghost", Rating: 1},
	}}
	node, src := newHybrid(fixedPredictor{"b1": 3, "b2": 3, "b3": 3}, hist)
	items, _ := src.Recall(context.Background(), nil)

	rctx := &core.RecommendContext{UserID: "u1"}
	out, err := node.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if lbl, _ := rctx.GetLabel(LabelUserSegment); lbl.Value != SegmentActive {
		t.Errorf("user_segment = %+v", lbl)
	}
	// 协同分相同，内容偏好决定顺序：b1 自身相似度 1，b2 与 b1 相近，b3 无关
	want := []string{"b1", "b2", "b3"}
	for i, id := range ids(out) {
		if id != want[i] {
			t.Fatalf("order = %v, want %v", ids(out), want)
		}
	}
	if got := out[0].Features[FeatureContent]; math.Abs(got-5) > 1e-9 {
		t.Errorf("content(b1) = %f, want 5", got)
	}
	if got := out[0].Score; math.Abs(got-(0.6*3+0.4*5)) > 1e-9 {
		t.Errorf("score(b1) = %f", got)
	}
	if lbl := out[0].Labels["rank_model"]; lbl.Value != "hybrid" {
		t.Errorf("rank_model label = %+v", lbl)
	}
}

func TestHybridNodeTiesKeepCatalogOrder(t *testing.T) {
	node, src := newHybrid(fixedPredictor{"b1": 3, "b2": 3, "b3": 3}, historyMap{})
	items, _ := src.Recall(context.Background(), nil)
	out, err := node.Process(context.Background(), &core.RecommendContext{UserID: "x"}, items)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"b1", "b2", "b3"}
	for i, id := range ids(out) {
		if id != want[i] {
			t.Fatalf("order = %v, want %v", ids(out), want)
		}
	}
}

func TestHybridNodeUnknownCandidate(t *testing.T) {
	node, _ := newHybrid(fixedPredictor{}, historyMap{})
	_, err := node.Process(context.Background(), &core.RecommendContext{}, []*core.Item{core.NewItem("nope")})
	if !core.IsInvariantViolation(err) {
		t.Errorf("error = %v, want INVARIANT_VIOLATION", err)
	}
}
