package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rushteam/bookrec/core"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStoreGetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	if _, err := s.Get(ctx, "k"); !core.IsStoreNotFound(err) {
		t.Fatalf("Get(missing) error = %v, want store not found", err)
	}
	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get() = %q, %v", got, err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "k"); !core.IsStoreNotFound(err) {
		t.Errorf("Get(deleted) error = %v", err)
	}
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	buf := []byte("abc")
	_ = s.Set(ctx, "k", buf)
	buf[0] = 'x'
	if got, _ := s.Get(ctx, "k"); string(got) != "abc" {
		t.Errorf("stored value changed with caller buffer: %q", got)
	}
}

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	s := newMemoryStore(time.Hour, clock.Now)
	defer s.Close()

	_ = s.Set(ctx, "short", []byte("1"), 5)
	_ = s.BatchSet(ctx, map[string][]byte{"a": []byte("a"), "b": []byte("b")}, 60)
	_ = s.Set(ctx, "forever", []byte("2"))

	clock.Advance(10 * time.Second)
	if _, err := s.Get(ctx, "short"); !core.IsStoreNotFound(err) {
		t.Errorf("expired key still readable: %v", err)
	}
	got, err := s.BatchGet(ctx, []string{"a", "b", "short", "forever", "missing"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || string(got["a"]) != "a" || string(got["forever"]) != "2" {
		t.Errorf("BatchGet() = %v", got)
	}

	s.evictExpired()
	s.mu.RLock()
	_, stillThere := s.data["short"]
	s.mu.RUnlock()
	if stillThere {
		t.Error("evictExpired kept an expired key")
	}
}

func TestMemoryStoreCloseIdempotent(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}
