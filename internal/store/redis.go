package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/ruby4mag/alert-normalizer/internal/models"
)

const (
	snapshotKey   = "alertnorm:snapshot"
	refreshPrefix = "alertnorm:refresh:"
)

// CachedSnapshots keeps the last snapshot in Redis for TTL. Redis failures
// are logged and the snapshot is loaded from Next instead.
type CachedSnapshots struct {
	Next  Snapshots
	Redis *redis.Client
	TTL   time.Duration
	Log   *zap.Logger
}

func (c *CachedSnapshots) Load(ctx context.Context) (models.Snapshot, error) {
	if c.TTL <= 0 {
		return c.Next.Load(ctx)
	}

	data, err := c.Redis.Get(ctx, snapshotKey).Bytes()
	switch {
	case err == nil:
		var snap models.Snapshot
		decodeErr := json.Unmarshal(data, &snap)
		if decodeErr == nil {
			return snap, nil
		}
		c.Log.Warn("discarding unreadable cached snapshot", zap.Error(decodeErr))
	case !errors.Is(err, redis.Nil):
		c.Log.Warn("snapshot cache unavailable", zap.Error(err))
	}

	snap, err := c.Next.Load(ctx)
	if err != nil {
		return models.Snapshot{}, err
	}
	if data, err := json.Marshal(snap); err == nil {
		if err := c.Redis.Set(ctx, snapshotKey, data, c.TTL).Err(); err != nil {
			c.Log.Warn("caching snapshot failed", zap.Error(err))
		}
	}
	return snap, nil
}

// Invalidate drops the cached snapshot after a write.
func (c *CachedSnapshots) Invalidate(ctx context.Context) error {
	if err := c.Redis.Del(ctx, snapshotKey).Err(); err != nil {
		return errors.Wrap(err, "invalidate snapshot cache")
	}
	return c.Next.Invalidate(ctx)
}

type RedisRefreshTokens struct {
	Redis *redis.Client
}

func (r RedisRefreshTokens) Save(ctx context.Context, token, username string, ttl time.Duration) error {
	return errors.Wrap(r.Redis.Set(ctx, refreshPrefix+token, username, ttl).Err(), "save refresh token")
}

func (r RedisRefreshTokens) Lookup(ctx context.Context, token string) (string, error) {
	username, err := r.Redis.Get(ctx, refreshPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "lookup refresh token")
	}
	return username, nil
}
