// Package store 提供 core.Store 的实现：MemoryStore（开发/测试/单机缓存）
// 和 RedisStore（快照存储与多实例共享的结果缓存）。
//
// 接口定义在 core 包：
//
//	var s core.Store = store.NewMemoryStore()
package store

import "github.com/rushteam/bookrec/core"

var (
	_ core.Store = (*MemoryStore)(nil)
	_ core.Store = (*RedisStore)(nil)
)
