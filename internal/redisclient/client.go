package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks connectivity; used by the diagnostics report.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// SaveCart writes a serialized cart snapshot to its key-value slot. Carts
// never expire on their own; a completed checkout clears the slot.
func (c *Client) SaveCart(ctx context.Context, cartID string, payload []byte) error {
	return c.rdb.Set(ctx, fmt.Sprintf("cart:%s", cartID), payload, 0).Err()
}

// LoadCart reads the serialized cart snapshot. A missing key returns
// (nil, nil) so callers can treat it as an empty cart.
func (c *Client) LoadCart(ctx context.Context, cartID string) ([]byte, error) {
	val, err := c.rdb.Get(ctx, fmt.Sprintf("cart:%s", cartID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// DeleteCart removes the cart slot.
func (c *Client) DeleteCart(ctx context.Context, cartID string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("cart:%s", cartID)).Err()
}

// SaveSession persists a serialized admin session with a TTL matching the
// token lifetime.
func (c *Client) SaveSession(ctx context.Context, payload []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, "session:admin", payload, ttl).Err()
}

// LoadSession reads the persisted admin session, (nil, nil) when absent.
func (c *Client) LoadSession(ctx context.Context) ([]byte, error) {
	val, err := c.rdb.Get(ctx, "session:admin").Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// DeleteSession clears the persisted admin session.
func (c *Client) DeleteSession(ctx context.Context) error {
	return c.rdb.Del(ctx, "session:admin").Err()
}
