// Package cache keeps JSON-encoded tutoring results in Redis or Dragonfly.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ClientName is reported to the server via CLIENT SETNAME.
const ClientName = "pai-ai-engine"

// Cache stores JSON values by key. It satisfies provider.AnalysisCache.
type Cache struct {
	client *redis.Client
	addr   string
}

// Option adjusts the client settings parsed from the cache URL.
type Option func(*redis.Options)

// WithTimeouts overrides the dial timeout and the per-command read and
// write timeout.
func WithTimeouts(dial, command time.Duration) Option {
	return func(o *redis.Options) {
		o.DialTimeout = dial
		o.ReadTimeout = command
		o.WriteTimeout = command
	}
}

func clientOptions(url string, opts []Option) (*redis.Options, error) {
	if url == "" {
		return nil, errors.New("cache URL is empty")
	}
	o, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse cache URL: %w", err)
	}
	o.ClientName = ClientName
	o.DialTimeout = 5 * time.Second
	o.ReadTimeout = 2 * time.Second
	o.WriteTimeout = 2 * time.Second
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// New connects to the cache at url and pings it once.
func New(ctx context.Context, url string, opts ...Option) (*Cache, error) {
	o, err := clientOptions(url, opts)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(o)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping cache %s: %w", o.Addr, err)
	}
	return &Cache{client: client, addr: o.Addr}, nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// HealthCheck pings the cache server.
func (c *Cache) HealthCheck(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping cache %s: %w", c.addr, err)
	}
	return nil
}

// GetJSON loads the JSON value stored at key into dst. It reports false,
// with a nil error, when the key does not exist.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v at key as JSON. A zero ttl means no expiry.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}
