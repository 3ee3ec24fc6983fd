package cache

import (
	"context"
	"testing"
	"time"
)

func TestCacheGetSetExpiry(t *testing.T) {
	ctx := context.Background()
	c := New[string, int](0)
	defer c.Close()

	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	c.Set(ctx, "a", 1, time.Minute)
	c.Set(ctx, "forever", 2, 0)

	if v, ok := c.Get(ctx, "a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %d, %v", v, ok)
	}

	now = now.Add(2 * time.Minute)

	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("entry should have expired")
	}
	if v, ok := c.Get(ctx, "forever"); !ok || v != 2 {
		t.Error("entry without ttl should not expire")
	}

	c.deleteExpired()
	if c.Len() != 1 {
		t.Errorf("Len after sweep = %d, want 1", c.Len())
	}
}

func TestCacheSetIfAbsent(t *testing.T) {
	ctx := context.Background()
	c := New[string, bool](0)
	defer c.Close()

	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	if !c.SetIfAbsent(ctx, "k", true, time.Second) {
		t.Fatal("first insert should succeed")
	}
	if c.SetIfAbsent(ctx, "k", true, time.Second) {
		t.Fatal("second insert should be rejected")
	}

	now = now.Add(2 * time.Second)
	if !c.SetIfAbsent(ctx, "k", true, time.Second) {
		t.Fatal("insert after expiry should succeed")
	}

	c.Delete(ctx, "k")
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("deleted key still present")
	}
}

func TestCacheCloseIsIdempotent(t *testing.T) {
	c := New[int, int](time.Millisecond)
	c.Close()
	c.Close()
}
