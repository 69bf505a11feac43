package listcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/screensync/backend/logger"
	"github.com/screensync/backend/subm"
)

// Connect initializes a Redis client from URL or host:port input.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisCache shares the listing between server instances.
type RedisCache struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

func NewRedisCache(client redis.Cmdable, prefix string, ttl time.Duration) *RedisCache {
	key := listKey
	if prefix != "" {
		key = prefix + ":" + listKey
	}
	return &RedisCache{client: client, key: key, ttl: ttl}
}

func (r *RedisCache) Get(ctx context.Context) ([]subm.Subm, bool) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.FromContext(ctx).Warn("list cache read failed", "error", err)
		}
		return nil, false
	}
	var subms []subm.Subm
	if err := json.Unmarshal(raw, &subms); err != nil {
		logger.FromContext(ctx).Warn("list cache entry is corrupt", "error", err)
		return nil, false
	}
	return subms, true
}

func (r *RedisCache) Set(ctx context.Context, subms []subm.Subm) {
	raw, err := json.Marshal(subms)
	if err != nil {
		slog.Error("failed to marshal submission list", "error", err)
		return
	}
	if err := r.client.Set(ctx, r.key, raw, r.ttl).Err(); err != nil {
		logger.FromContext(ctx).Warn("list cache write failed", "error", err)
	}
}

func (r *RedisCache) Invalidate(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate list cache: %w", err)
	}
	return nil
}
