package recall

import (
	"testing"

	"github.com/rushteam/bookrec/core"
)

func TestBookIndexCoversWholeCatalog(t *testing.T) {
	catalog := []core.CatalogEntry{
		{BookID: "a", Title: "A"},
		{BookID: "b", Title: "B"},
		{BookID: "c", Title: "C"},
	}
	idx := NewBookIndex(catalog)

	if idx.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", idx.Len())
	}
	for i, c := range catalog {
		got, ok := idx.Index(c.BookID)
		if !ok || got != i {
			t.Errorf("Index(%s) = %d,%v want %d", c.BookID, got, ok, i)
		}
		id, ok := idx.BookID(i)
		if !ok || id != c.BookID {
			t.Errorf("BookID(%d) = %s,%v want %s", i, id, ok, c.BookID)
		}
	}
	if _, ok := idx.Index("zzz"); ok {
		t.Errorf("unknown book should have no index")
	}
	if _, ok := idx.BookID(3); ok {
		t.Errorf("out of range index should fail")
	}
}

func TestInteractionIndexFirstAppearanceOrder(t *testing.T) {
	ratings := []core.RatingRecord{
		{UserID: "u2", BookID: "b3", Rating: 1},
		{UserID: "u1", BookID: "b1", Rating: 2},
		{UserID: "u2", BookID: "b1", Rating: 3},
	}
	idx := NewInteractionIndex(ratings)

	if idx.NumUsers() != 2 || idx.NumItems() != 2 {
		t.Fatalf("users=%d items=%d, want 2/2", idx.NumUsers(), idx.NumItems())
	}
	if u, _ := idx.UserIndex("u2"); u != 0 {
		t.Errorf("u2 index = %d, want 0", u)
	}
	if i, _ := idx.ItemIndex("b1"); i != 1 {
		t.Errorf("b1 index = %d, want 1", i)
	}
	if id, _ := idx.ItemID(0); id != "b3" {
		t.Errorf("item 0 = %s, want b3", id)
	}
	if _, ok := idx.UserIndex("u9"); ok {
		t.Errorf("unseen user must not be indexed")
	}
}
