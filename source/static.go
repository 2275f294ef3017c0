// Package source 提供 core.SnapshotSource 的实现：内存、文件、SQL（Postgres）和 core.Store。
//
// 数据源只负责读取；校验在引擎的加载边界统一进行（core.Snapshot.Validate）。
package source

import (
	"context"

	"github.com/rushteam/bookrec/core"
)

// StaticSource 返回固定的内存快照（测试/演示/嵌入式使用）。
type StaticSource struct {
	Snapshot core.Snapshot
}

// NewStaticSource 创建内存快照数据源。
func NewStaticSource(ratings []core.RatingRecord, catalog []core.CatalogEntry) *StaticSource {
	return &StaticSource{Snapshot: core.Snapshot{Ratings: ratings, Catalog: catalog}}
}

func (s *StaticSource) Name() string { return "static" }

// Load 返回快照的副本，调用方修改不会影响后续 Load。
func (s *StaticSource) Load(ctx context.Context) (*core.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return cloneSnapshot(&s.Snapshot), nil
}

func cloneSnapshot(s *core.Snapshot) *core.Snapshot {
	out := &core.Snapshot{
		Ratings: append([]core.RatingRecord(nil), s.Ratings...),
		Catalog: make([]core.CatalogEntry, len(s.Catalog)),
	}
	for i, c := range s.Catalog {
		c.Genres = append([]string(nil), c.Genres...)
		out.Catalog[i] = c
	}
	return out
}
