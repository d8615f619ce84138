// Package cache keeps Redis list indexes of follower and following ids for
// relationship pages. The index is display-only and never gates visibility.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Loader returns every id of a relationship list, newest first.
type Loader func(ctx context.Context) ([]string, error)

// RelationCache caches follower/following id lists per user.
type RelationCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRelationCache returns nil when client is nil; callers skip a nil cache.
func NewRelationCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *RelationCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RelationCache{client: client, ttl: ttl, log: log}
}

func followersKey(userID string) string { return fmt.Sprintf("followers:index:%s", userID) }
func followingKey(userID string) string { return fmt.Sprintf("following:index:%s", userID) }

// Followers returns one page of follower ids and the total list length.
func (c *RelationCache) Followers(ctx context.Context, userID string, offset, size int, load Loader) ([]string, int64, error) {
	return c.page(ctx, followersKey(userID), offset, size, load)
}

// Following returns one page of followee ids and the total list length.
func (c *RelationCache) Following(ctx context.Context, userID string, offset, size int, load Loader) ([]string, int64, error) {
	return c.page(ctx, followingKey(userID), offset, size, load)
}

// Invalidate drops the cached lists touched by a follow edge change.
func (c *RelationCache) Invalidate(ctx context.Context, followerID, followeeID string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, followingKey(followerID), followersKey(followeeID)).Err(); err != nil {
		c.log.Warn("failed to invalidate relation cache",
			zap.String("follower", followerID),
			zap.String("followee", followeeID),
			zap.Error(err))
	}
}

func (c *RelationCache) page(ctx context.Context, key string, offset, size int, load Loader) ([]string, int64, error) {
	// 命中时用 LLEN + LRANGE 只取所需区间
	pipe := c.client.Pipeline()
	lenCmd := pipe.LLen(ctx, key)
	rangeCmd := pipe.LRange(ctx, key, int64(offset), int64(offset+size-1))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		c.log.Warn("relation cache read failed, falling back to store", zap.String("key", key), zap.Error(err))
		return c.load(ctx, key, offset, size, load, false)
	}
	if total := lenCmd.Val(); total > 0 {
		return rangeCmd.Val(), total, nil
	}

	return c.load(ctx, key, offset, size, load, true)
}

// store 以 Redis List 保存全部 id；空列表不缓存
func (c *RelationCache) store(ctx context.Context, key string, ids []string) {
	if len(ids) == 0 {
		return
	}
	values := make([]interface{}, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.RPush(ctx, key, values...)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn("failed to populate relation cache", zap.String("key", key), zap.Error(err))
	}
}

func (c *RelationCache) load(ctx context.Context, key string, offset, size int, load Loader, populate bool) ([]string, int64, error) {
	ids, err := load(ctx)
	if err != nil {
		return nil, 0, err
	}
	if populate {
		c.store(ctx, key, ids)
	}
	return window(ids, offset, size), int64(len(ids)), nil
}

func window(ids []string, offset, size int) []string {
	if offset >= len(ids) {
		return []string{}
	}
	end := offset + size
	if end > len(ids) {
		end = len(ids)
	}
	return ids[offset:end]
}
