package rerank

import (
	"context"
	"testing"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/utils"
)

func books(pairs ...string) []*core.Item {
	out := make([]*core.Item, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		it := core.NewItem(pairs[i])
		it.Meta["author"] = pairs[i+1]
		out = append(out, it)
	}
	return out
}

func idsOf(items []*core.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTopNNode(t *testing.T) {
	tests := []struct {
		name string
		node TopNNode
		rctx *core.RecommendContext
		want []string
	}{
		{"fixed N", TopNNode{N: 2}, nil, []string{"b1", "b2"}},
		{"from context", TopNNode{}, &core.RecommendContext{TopN: 1}, []string{"b1"}},
		{"N wins over context", TopNNode{N: 2}, &core.RecommendContext{TopN: 1}, []string{"b1", "b2"}},
		{"larger than input", TopNNode{N: 10}, nil, []string{"b1", "b2", "b3"}},
		{"unset keeps all", TopNNode{}, &core.RecommendContext{}, []string{"b1", "b2", "b3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.node.Process(context.Background(), tt.rctx, books("b1", "x", "b2", "y", "b3", "z"))
			if err != nil {
				t.Fatal(err)
			}
			if got := idsOf(out); !sameIDs(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiversityDemotesRepeatedAuthors(t *testing.T) {
	in := books("b1", "Herbert", "b2", "Herbert", "b3", "Austen", "b4", "Herbert", "b5", "")

	out, err := (&Diversity{}).Process(context.Background(), nil, in)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"b1", "b3", "b5", "b2", "b4"}
	if got := idsOf(out); !sameIDs(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	out, _ = (&Diversity{MaxPerKey: 2}).Process(context.Background(), nil, books("b1", "H", "b2", "H", "b3", "H", "b4", "A"))
	if got := idsOf(out); !sameIDs(got, []string{"b1", "b2", "b4", "b3"}) {
		t.Errorf("MaxPerKey 2: got %v", got)
	}
}

func TestDiversityPrefersLabel(t *testing.T) {
	in := books("b1", "A", "b2", "B")
	for _, it := range in {
		it.PutLabel("series", utils.NewLabel("dune", "test"))
	}
	out, _ := (&Diversity{Key: "series"}).Process(context.Background(), nil, in)
	if got := idsOf(out); !sameIDs(got, []string{"b1", "b2"}) {
		t.Errorf("got %v", got)
	}
	if len(out) != 2 {
		t.Errorf("diversity must not drop items")
	}
}
