package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps redis.Client but fails safe by swallowing connectivity errors.
type Client struct {
	client *redis.Client
}

// New creates a new Redis client.
func New(addr, password string, db int) *Client {
	opts := &redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}
	return &Client{client: redis.NewClient(opts)}
}

// Incr increments a counter key and returns the new value. Returns -1 when
// redis is unavailable so callers can treat the count as unknown.
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	if c == nil || c.client == nil {
		return -1, nil
	}
	n, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		// fail safe: behave as if the counter is unknown
		return -1, nil
	}
	return n, nil
}

// Expire sets a TTL on a key, ignoring redis errors.
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
		return nil
	}
	return nil
}
