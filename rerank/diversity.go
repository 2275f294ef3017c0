package rerank

import (
	"context"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
)

// Diversity 是按作者（或任意 Meta/Label 字段）打散的重排节点。
// 同一取值最多保留 MaxPerKey 个在前面，超出的按原顺序移到列表末尾，
// 因此候选总数不变，后续 TopN 截断依旧能取满。
//
// 取值来源优先级：
//   - label[Key].Value
//   - meta[Key] (string)
type Diversity struct {
	Key       string // 默认 "author"
	MaxPerKey int    // 默认 1
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	key := n.Key
	if key == "" {
		key = "author"
	}
	maxPerKey := n.MaxPerKey
	if maxPerKey <= 0 {
		maxPerKey = 1
	}

	seen := make(map[string]int, 32)
	head := make([]*core.Item, 0, len(items))
	var tail []*core.Item

	for _, it := range items {
		if it == nil {
			continue
		}
		v := valueOf(it, key)
		if v == "" {
			head = append(head, it)
			continue
		}
		if seen[v] >= maxPerKey {
			tail = append(tail, it)
			continue
		}
		seen[v]++
		head = append(head, it)
	}
	return append(head, tail...), nil
}

func valueOf(it *core.Item, key string) string {
	if it.Labels != nil {
		if lbl, ok := it.Labels[key]; ok && lbl.Value != "" {
			return lbl.Value
		}
	}
	if it.Meta != nil {
		if s, ok := it.Meta[key].(string); ok {
			return s
		}
	}
	return ""
}
