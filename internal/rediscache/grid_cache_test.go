package rediscache

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/example/timetable-share/internal/application"
	"github.com/example/timetable-share/internal/availability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGridCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("TIMETABLE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TIMETABLE_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client, err := NewClient(ctx, addr, os.Getenv("TIMETABLE_TEST_REDIS_PASSWORD"), 0)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	cache := New(client, Config{Prefix: "timetable-test:" + uuid.NewString(), TTL: time.Minute}, discardLogger())

	if _, ok := cache.Get(ctx, "u1"); ok {
		t.Fatal("expected miss on empty cache")
	}

	var grid availability.Grid
	grid[3][2] = true
	stored := application.StoredGrid{Grid: grid, UpdatedAt: time.Date(2024, 3, 4, 1, 30, 0, 0, time.UTC)}
	cache.Store(ctx, "u1", stored)

	got, ok := cache.Get(ctx, "u1")
	if !ok {
		t.Fatal("expected hit after Store")
	}
	if got.Grid != grid || !got.UpdatedAt.Equal(stored.UpdatedAt) {
		t.Fatalf("unexpected entry %#v", got)
	}

	cache.Invalidate(ctx, "u1")
	if _, ok := cache.Get(ctx, "u1"); ok {
		t.Fatal("expected miss after Invalidate")
	}
}

func TestGridCacheUnavailableIsMiss(t *testing.T) {
	t.Parallel()

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	cache := New(client, Config{}, discardLogger())
	ctx := context.Background()

	cache.Store(ctx, "u1", application.StoredGrid{})
	if _, ok := cache.Get(ctx, "u1"); ok {
		t.Fatal("expected miss when redis is unreachable")
	}
	cache.Invalidate(ctx, "u1")
}

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()

	cache := New(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), Config{Prefix: "  "}, nil)
	if cache.prefix != defaultPrefix || cache.ttl != defaultTTL {
		t.Fatalf("unexpected defaults: %q %v", cache.prefix, cache.ttl)
	}
	if got := cache.key("abc"); got != defaultPrefix+":abc" {
		t.Fatalf("unexpected key %q", got)
	}
}
