package filter

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/rushteam/bookrec/core"
)

// BlacklistFilter 是黑名单过滤器，过滤掉黑名单中的书。
//   - BookIDs：内存中的黑名单
//   - Store + Key：存储中以 JSON 数组保存的黑名单（可选，读取失败时忽略）
type BlacklistFilter struct {
	BookIDs []string
	Store   core.Store
	Key     string
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}

	for _, id := range f.BookIDs {
		if item.ID == id {
			return true, nil
		}
	}

	if f.Store != nil && f.Key != "" {
		blacklist, err := f.load(ctx)
		if err != nil {
			return false, err
		}
		for _, id := range blacklist {
			if item.ID == id {
				return true, nil
			}
		}
	}
	return false, nil
}

func (f *BlacklistFilter) load(ctx context.Context) ([]string, error) {
	data, err := f.Store.Get(ctx, f.Key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
