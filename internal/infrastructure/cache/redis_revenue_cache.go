package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/retailcore/backend/internal/application/report"
	"github.com/retailcore/backend/internal/infrastructure/config"
)

const defaultRevenueKeyPrefix = "report:"

// RedisRevenueCache implements report.RevenueCache on Redis. Suitable for
// distributed deployments where several instances serve the same dashboard.
type RedisRevenueCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisRevenueCache connects to Redis and verifies the connection.
func NewRedisRevenueCache(cfg config.RedisConfig) (*RedisRevenueCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisRevenueCache{
		client:    client,
		keyPrefix: defaultRevenueKeyPrefix,
	}, nil
}

// NewRedisRevenueCacheWithClient creates a cache over an existing client.
// Useful for testing or when sharing a client across components.
func NewRedisRevenueCacheWithClient(client *redis.Client, keyPrefix string) *RedisRevenueCache {
	if keyPrefix == "" {
		keyPrefix = defaultRevenueKeyPrefix
	}
	return &RedisRevenueCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get returns the cached report for the key, or (nil, nil) on a miss.
func (c *RedisRevenueCache) Get(ctx context.Context, key string) (*report.RevenueReport, error) {
	data, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached report: %w", err)
	}

	var cached report.RevenueReport
	if err := json.Unmarshal(data, &cached); err != nil {
		// a corrupt entry behaves like a miss; the next Set overwrites it
		return nil, nil
	}
	return &cached, nil
}

// Set stores the report under the key with a TTL.
func (c *RedisRevenueCache) Set(ctx context.Context, key string, rpt *report.RevenueReport, ttl time.Duration) error {
	data, err := json.Marshal(rpt)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache report: %w", err)
	}
	return nil
}

// InvalidateShop drops every cached report of one shop. Keys are walked with
// SCAN so invalidation never blocks the server the way KEYS would.
func (c *RedisRevenueCache) InvalidateShop(ctx context.Context, tenantID, shopID uuid.UUID) error {
	pattern := fmt.Sprintf("%srevenue:%s:%s:*", c.keyPrefix, tenantID, shopID)

	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cached reports: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to drop cached reports: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (c *RedisRevenueCache) Close() error {
	return c.client.Close()
}

// Ensure RedisRevenueCache implements report.RevenueCache
var _ report.RevenueCache = (*RedisRevenueCache)(nil)
