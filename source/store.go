package source

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/rushteam/bookrec/core"
)

// DefaultStorePrefix 是快照在 Store 中的默认 key 前缀。
const DefaultStorePrefix = "bookrec:snapshot"

// StoreSource 从 core.Store（通常是 Redis）读取以 JSON 保存的快照：
//   - {Prefix}:ratings → []RatingRecord
//   - {Prefix}:catalog → []CatalogEntry
//
// 上游 ETL 通过 Publish 写入，多个引擎实例共享同一份快照。
type StoreSource struct {
	Store  core.Store
	Prefix string
}

func (s *StoreSource) Name() string { return "store:" + s.Store.Name() }

func (s *StoreSource) keys() (ratings, catalog string) {
	prefix := s.Prefix
	if prefix == "" {
		prefix = DefaultStorePrefix
	}
	return prefix + ":ratings", prefix + ":catalog"
}

func (s *StoreSource) Load(ctx context.Context) (*core.Snapshot, error) {
	rk, ck := s.keys()
	vals, err := s.Store.BatchGet(ctx, []string{rk, ck})
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleSource, core.ErrorCodeUnavailable, err, "source: read snapshot from %s", s.Store.Name())
	}

	var snap core.Snapshot
	if data, ok := vals[rk]; ok {
		if err := json.Unmarshal(data, &snap.Ratings); err != nil {
			return nil, core.WrapDomainError(core.ModuleSource, core.ErrorCodeInvalidInput, err, "source: decode %s", rk)
		}
	}
	data, ok := vals[ck]
	if !ok {
		return nil, core.NotFoundError(core.ModuleSource, "snapshot key", ck)
	}
	if err := json.Unmarshal(data, &snap.Catalog); err != nil {
		return nil, core.WrapDomainError(core.ModuleSource, core.ErrorCodeInvalidInput, err, "source: decode %s", ck)
	}
	return &snap, nil
}

// Publish 把快照写入 Store，供后续 Load 读取。
func (s *StoreSource) Publish(ctx context.Context, snap *core.Snapshot) error {
	ratings, err := json.Marshal(snap.Ratings)
	if err != nil {
		return err
	}
	catalog, err := json.Marshal(snap.Catalog)
	if err != nil {
		return err
	}
	rk, ck := s.keys()
	return s.Store.BatchSet(ctx, map[string][]byte{rk: ratings, ck: catalog})
}
