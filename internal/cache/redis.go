package cache

import (
	"context"
	"fmt"
	"strings"

	red "github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "history:cache"
	scanBatch        = 256
)

// Redis invalidates listings cached under prefix:scope:*.
type Redis struct {
	client *red.Client
	prefix string
}

// NewRedis constructs the Redis cache.
func NewRedis(client *red.Client, keyPrefix string) *Redis {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

// Invalidate deletes all keys under scope.
func (c *Redis) Invalidate(ctx context.Context, scope string) error {
	match := c.prefix + ":" + scope + ":*"
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, match, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("redis scan %s: %w", match, err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
