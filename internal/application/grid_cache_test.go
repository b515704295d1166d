package application

import (
	"context"
	"testing"
	"time"

	"github.com/example/timetable-share/internal/availability"
)

func TestLocalGridCacheExpiresEntries(t *testing.T) {
	t.Parallel()

	clock := newTestClock(time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC))
	cache := NewLocalGridCache(time.Minute, 8, clock.NowFunc())
	ctx := context.Background()

	var grid availability.Grid
	grid.Set(availability.Cell{Slot: 1, Day: 2}, true)
	cache.Store(ctx, "u-1", StoredGrid{Grid: grid})

	got, ok := cache.Get(ctx, "u-1")
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if !got.Grid.At(availability.Cell{Slot: 1, Day: 2}) {
		t.Fatalf("expected cached grid to retain busy cell")
	}

	clock.Advance(2 * time.Minute)
	if _, ok := cache.Get(ctx, "u-1"); ok {
		t.Fatalf("expected entry to expire after ttl")
	}
	if cache.Len() != 0 {
		t.Fatalf("expected expired entry to be dropped, len=%d", cache.Len())
	}
}

func TestLocalGridCacheInvalidate(t *testing.T) {
	t.Parallel()

	cache := NewLocalGridCache(time.Minute, 8, nil)
	ctx := context.Background()
	cache.Store(ctx, "u-1", StoredGrid{})
	cache.Store(ctx, "u-2", StoredGrid{})

	cache.Invalidate(ctx, "u-1")

	if _, ok := cache.Get(ctx, "u-1"); ok {
		t.Fatalf("expected invalidated entry to miss")
	}
	if _, ok := cache.Get(ctx, "u-2"); !ok {
		t.Fatalf("expected other entry to survive invalidation")
	}
}

func TestLocalGridCacheKeepsNewerRevision(t *testing.T) {
	t.Parallel()

	saved := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	clock := newTestClock(saved)
	cache := NewLocalGridCache(time.Minute, 8, clock.NowFunc())
	ctx := context.Background()

	var fresh availability.Grid
	fresh.Set(availability.Cell{Slot: 3, Day: 4}, true)
	cache.Store(ctx, "u-1", StoredGrid{Grid: fresh, UpdatedAt: saved})
	cache.Store(ctx, "u-1", StoredGrid{UpdatedAt: saved.Add(-time.Minute)})

	got, ok := cache.Get(ctx, "u-1")
	if !ok || !got.Grid.At(availability.Cell{Slot: 3, Day: 4}) || !got.UpdatedAt.Equal(saved) {
		t.Fatalf("expected older fetch to be ignored, got %#v", got)
	}

	cache.Store(ctx, "u-1", StoredGrid{UpdatedAt: saved.Add(time.Second)})
	if got, _ := cache.Get(ctx, "u-1"); !got.Grid.IsEmpty() {
		t.Fatalf("expected newer revision to replace entry, got %#v", got)
	}

	clock.Advance(2 * time.Minute)
	cache.Store(ctx, "u-1", StoredGrid{Grid: fresh, UpdatedAt: saved})
	if got, ok := cache.Get(ctx, "u-1"); !ok || got.Grid.IsEmpty() {
		t.Fatalf("expected expired entry to accept any revision, got %#v", got)
	}
}

func TestLocalGridCacheRespectsCapacity(t *testing.T) {
	t.Parallel()

	cache := NewLocalGridCache(time.Minute, 2, nil)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		cache.Store(ctx, id, StoredGrid{})
	}
	if cache.Len() != 2 {
		t.Fatalf("expected cache to hold 2 entries, got %d", cache.Len())
	}
	if _, ok := cache.Get(ctx, "c"); !ok {
		t.Fatalf("expected most recent entry to be present")
	}
}

func TestNilLocalGridCacheIsSafe(t *testing.T) {
	t.Parallel()

	var cache *LocalGridCache
	cache.Store(context.Background(), "u", StoredGrid{})
	cache.Invalidate(context.Background(), "u")
	if _, ok := cache.Get(context.Background(), "u"); ok {
		t.Fatalf("expected nil cache to miss")
	}
}
