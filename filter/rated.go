package filter

import (
	"context"

	"github.com/rushteam/bookrec/core"
)

// RatedLookup 判断用户是否已评过某本书。
type RatedLookup interface {
	HasRated(userID, bookID string) bool
}

// RatedFilter 过滤掉用户已经评过分的书（"看过的不再推"）。
type RatedFilter struct {
	Lookup RatedLookup
}

func (f *RatedFilter) Name() string {
	return "filter.rated"
}

func (f *RatedFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if f.Lookup == nil || rctx == nil || rctx.UserID == "" {
		return false, nil
	}
	return f.Lookup.HasRated(rctx.UserID, item.ID), nil
}
