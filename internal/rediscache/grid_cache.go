// Package rediscache implements application.GridCache on Redis so replicas
// share recently read friend grids.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/example/timetable-share/internal/application"
	"github.com/example/timetable-share/internal/availability"
)

const (
	defaultPrefix = "timetable:grid"
	defaultTTL    = 30 * time.Second
)

// Config tunes key naming and expiry.
type Config struct {
	Prefix string
	TTL    time.Duration
}

// GridCache stores grids as JSON strings under "<prefix>:<userID>".
// Redis errors are logged and treated as misses.
type GridCache struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

var _ application.GridCache = (*GridCache)(nil)

type gridPayload struct {
	Grid      availability.Grid `json:"grid"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// New builds a GridCache over client.
func New(client redis.Cmdable, config Config, logger *slog.Logger) *GridCache {
	prefix := strings.TrimSpace(config.Prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	ttl := config.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GridCache{client: client, prefix: prefix, ttl: ttl, logger: logger.With("component", "grid_cache")}
}

// NewClient connects to addr and pings it.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	return client, nil
}

func (c *GridCache) key(userID string) string {
	return c.prefix + ":" + userID
}

func (c *GridCache) Get(ctx context.Context, userID string) (application.StoredGrid, bool) {
	raw, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return application.StoredGrid{}, false
	}
	if err != nil {
		c.logger.WarnContext(ctx, "grid cache read failed", "user_id", userID, "error", err)
		return application.StoredGrid{}, false
	}

	var payload gridPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.logger.WarnContext(ctx, "grid cache entry unreadable", "user_id", userID, "error", err)
		return application.StoredGrid{}, false
	}
	return application.StoredGrid{Grid: payload.Grid, UpdatedAt: payload.UpdatedAt}, true
}

func (c *GridCache) Store(ctx context.Context, userID string, grid application.StoredGrid) {
	raw, err := json.Marshal(gridPayload{Grid: grid.Grid, UpdatedAt: grid.UpdatedAt})
	if err != nil {
		c.logger.WarnContext(ctx, "grid cache encode failed", "user_id", userID, "error", err)
		return
	}
	if err := c.client.Set(ctx, c.key(userID), raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "grid cache write failed", "user_id", userID, "error", err)
	}
}

func (c *GridCache) Invalidate(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "grid cache invalidate failed", "user_id", userID, "error", err)
	}
}
