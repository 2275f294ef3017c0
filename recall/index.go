package recall

import "github.com/rushteam/bookrec/core"

// BookIndex 是书目标识与稠密下标之间的双向映射，覆盖目录中的每一本书（不只是被评分的书）。
// 内容相似度与协同过滤路径共用此映射；下标顺序即目录顺序。
type BookIndex struct {
	toIndex map[string]int
	entries []core.CatalogEntry
}

// NewBookIndex 按目录顺序构建映射。目录中的重复标识需在加载边界被拒绝（Snapshot.Validate）。
func NewBookIndex(catalog []core.CatalogEntry) *BookIndex {
	idx := &BookIndex{
		toIndex: make(map[string]int, len(catalog)),
		entries: make([]core.CatalogEntry, len(catalog)),
	}
	copy(idx.entries, catalog)
	for i, c := range catalog {
		idx.toIndex[c.BookID] = i
	}
	return idx
}

// Len 返回目录大小
func (b *BookIndex) Len() int { return len(b.entries) }

// Index 返回书目的下标
func (b *BookIndex) Index(bookID string) (int, bool) {
	i, ok := b.toIndex[bookID]
	return i, ok
}

// BookID 返回下标对应的书目标识
func (b *BookIndex) BookID(i int) (string, bool) {
	if i < 0 || i >= len(b.entries) {
		return "", false
	}
	return b.entries[i].BookID, true
}

// Entry 返回下标对应的目录行
func (b *BookIndex) Entry(i int) (core.CatalogEntry, bool) {
	if i < 0 || i >= len(b.entries) {
		return core.CatalogEntry{}, false
	}
	return b.entries[i], true
}

// Entries 返回目录（只读）
func (b *BookIndex) Entries() []core.CatalogEntry { return b.entries }

// InteractionIndex 是矩阵分解路径专用的 (用户, 物品) 映射，由评分表中出现过的
// 用户与书目按首次出现顺序构建。它与 BookIndex 是两个独立的标识空间，不可混用。
type InteractionIndex struct {
	userToIndex map[string]int
	itemToIndex map[string]int
	users       []string
	items       []string
}

// NewInteractionIndex 从评分表构建用户/物品映射。
func NewInteractionIndex(ratings []core.RatingRecord) *InteractionIndex {
	idx := &InteractionIndex{
		userToIndex: make(map[string]int),
		itemToIndex: make(map[string]int),
	}
	for _, r := range ratings {
		if _, ok := idx.userToIndex[r.UserID]; !ok {
			idx.userToIndex[r.UserID] = len(idx.users)
			idx.users = append(idx.users, r.UserID)
		}
		if _, ok := idx.itemToIndex[r.BookID]; !ok {
			idx.itemToIndex[r.BookID] = len(idx.items)
			idx.items = append(idx.items, r.BookID)
		}
	}
	return idx
}

func (x *InteractionIndex) NumUsers() int { return len(x.users) }
func (x *InteractionIndex) NumItems() int { return len(x.items) }

// UserIndex 返回用户下标
func (x *InteractionIndex) UserIndex(userID string) (int, bool) {
	i, ok := x.userToIndex[userID]
	return i, ok
}

// ItemIndex 返回物品下标
func (x *InteractionIndex) ItemIndex(bookID string) (int, bool) {
	i, ok := x.itemToIndex[bookID]
	return i, ok
}

// UserID 返回下标对应的用户
func (x *InteractionIndex) UserID(i int) (string, bool) {
	if i < 0 || i >= len(x.users) {
		return "", false
	}
	return x.users[i], true
}

// ItemID 返回下标对应的书目
func (x *InteractionIndex) ItemID(i int) (string, bool) {
	if i < 0 || i >= len(x.items) {
		return "", false
	}
	return x.items[i], true
}
