package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreLockIsExclusive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()
	ok, err := store.TryLock(ctx, "weekly:2026-10-14", "a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first lock: ok=%v err=%v", ok, err)
	}
	if ok, _ := store.TryLock(ctx, "weekly:2026-10-14", "b", time.Minute); ok {
		t.Fatalf("second holder must not acquire the lock")
	}
	if err := store.Unlock(ctx, "weekly:2026-10-14", "b"); err != nil {
		t.Fatalf("foreign unlock: %v", err)
	}
	if ok, _ := store.TryLock(ctx, "weekly:2026-10-14", "b", time.Minute); ok {
		t.Fatalf("foreign unlock must not release the lock")
	}
	if err := store.Unlock(ctx, "weekly:2026-10-14", "a"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if ok, _ := store.TryLock(ctx, "weekly:2026-10-14", "b", time.Minute); !ok {
		t.Fatalf("lock should be free after release")
	}
}

func TestMemoryStoreLockExpires(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.nowFn = func() time.Time { return now }
	if ok, _ := store.TryLock(ctx, "k", "a", time.Minute); !ok {
		t.Fatalf("expected lock")
	}
	now = now.Add(2 * time.Minute)
	if ok, _ := store.TryLock(ctx, "k", "b", time.Minute); !ok {
		t.Fatalf("expired lock should be reacquirable")
	}
}

func TestMemoryStoreCachePrefixDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Set(ctx, "summary:a", []byte("1"), time.Minute)
	_ = store.Set(ctx, "summary:b", []byte("2"), time.Minute)
	_ = store.Set(ctx, "other", []byte("3"), time.Minute)
	if err := store.DeleteByPrefix(ctx, "summary:"); err != nil {
		t.Fatalf("DeleteByPrefix: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "summary:a"); ok {
		t.Fatalf("summary:a should be gone")
	}
	if v, ok, _ := store.Get(ctx, "other"); !ok || string(v) != "3" {
		t.Fatalf("unrelated key should survive, got %q %v", v, ok)
	}
}
