package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mvasiljevic/delivery-shop/internal/config"
	"github.com/mvasiljevic/delivery-shop/pkg/logger"
)

const searchKeyPrefix = "search:"

// Connect opens a Redis client and verifies the connection.
func Connect(cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}

// SearchCache caches catalog search responses. All failures degrade to a
// cache miss; the database stays the source of truth.
type SearchCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewSearchCache(client *redis.Client, log logger.Logger) *SearchCache {
	return &SearchCache{client: client, ttl: 5 * time.Minute, logger: log}
}

func key(name, category string) string {
	return fmt.Sprintf("%s%s:%s", searchKeyPrefix, name, category)
}

// Get loads a cached search result into dest; false means miss.
func (c *SearchCache) Get(ctx context.Context, name, category string, dest interface{}) bool {
	data, err := c.client.Get(ctx, key(name, category)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Redis error, falling through to DB", "error", err)
		}
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn("Failed to unmarshal cached search result", "error", err)
		return false
	}

	return true
}

// Set stores a search result under the (name, category) filter pair.
func (c *SearchCache) Set(ctx context.Context, name, category string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Failed to marshal search result", "error", err)
		return
	}

	if err := c.client.Set(ctx, key(name, category), data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to cache search result", "error", err)
	}
}

// Invalidate drops every cached search result. Called after catalog
// ingestion commits.
func (c *SearchCache) Invalidate(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, searchKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Warn("Failed to delete cached search result", "key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("Failed to scan search cache", "error", err)
	}
}
