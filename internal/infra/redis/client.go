// Package redis wraps the Redis connection used as a shared price cache.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps Redis operations for the price cache.
type Client struct {
	rdb *redis.Client
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

func priceKey(tokenAddress string) string {
	return fmt.Sprintf("price:%s", tokenAddress)
}

// GetPrice reads a cached price. found is false on a cache miss.
func (c *Client) GetPrice(ctx context.Context, tokenAddress string) (price float64, found bool, err error) {
	val, err := c.rdb.Get(ctx, priceKey(tokenAddress)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get failed: %w", err)
	}

	price, err = strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt cached price: %w", err)
	}
	return price, true, nil
}

// SetPrice caches a price with a TTL.
func (c *Client) SetPrice(ctx context.Context, tokenAddress string, price float64, ttl time.Duration) error {
	val := strconv.FormatFloat(price, 'f', -1, 64)
	return c.rdb.Set(ctx, priceKey(tokenAddress), val, ttl).Err()
}
