package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDeduper remembers handled notification keys for ttl. Redis errors fail
// open so an outage never drops notifications.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisDeduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDeduper{client: client, ttl: ttl, logger: logger}
}

func (d *RedisDeduper) First(ctx context.Context, key string) bool {
	ok, err := d.client.SetNX(ctx, key, time.Now().Unix(), d.ttl).Result()
	if err != nil {
		d.logger.Warn("notification dedup unavailable", "key", key, "error", err)
		return true
	}
	return ok
}

func (d *RedisDeduper) Forget(ctx context.Context, key string) {
	if err := d.client.Del(ctx, key).Err(); err != nil {
		d.logger.Warn("failed to release dedup key", "key", key, "error", err)
	}
}
