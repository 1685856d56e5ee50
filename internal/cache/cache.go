package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"comment-board/internal/domain"
)

const listKey = "board:comments"

// Lists caches the rendered comment listing. A miss returns
// (nil, false, nil); storage stays authoritative and callers must treat
// cache errors as misses.
type Lists interface {
	Get(ctx context.Context) ([]domain.Comment, bool, error)
	Set(ctx context.Context, comments []domain.Comment) error
	// Invalidate drops the cached listing. Called after every comment
	// mutation and after account deletion.
	Invalidate(ctx context.Context) error
}

// RedisLists stores the listing as a JSON blob with a TTL.
type RedisLists struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisLists(rdb *redis.Client, ttl time.Duration) *RedisLists {
	return &RedisLists{rdb: rdb, ttl: ttl}
}

func (c *RedisLists) Get(ctx context.Context) ([]domain.Comment, bool, error) {
	data, err := c.rdb.Get(ctx, listKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	var comments []domain.Comment
	if err := json.Unmarshal(data, &comments); err != nil {
		return nil, false, fmt.Errorf("cache decode: %w", err)
	}
	return comments, true, nil
}

func (c *RedisLists) Set(ctx context.Context, comments []domain.Comment) error {
	payload, err := json.Marshal(comments)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.rdb.Set(ctx, listKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *RedisLists) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, listKey).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

// Disabled is the no-op cache used when no redis address is configured.
type Disabled struct{}

func (Disabled) Get(context.Context) ([]domain.Comment, bool, error) { return nil, false, nil }
func (Disabled) Set(context.Context, []domain.Comment) error         { return nil }
func (Disabled) Invalidate(context.Context) error                    { return nil }
