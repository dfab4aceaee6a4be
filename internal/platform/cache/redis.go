// Package cache provides a Redis-backed result cache for search responses.
// The service degrades gracefully when Redis is unavailable: cache misses
// are returned and the index is queried directly.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rr015/namaste-icd11-service/internal/domain/terminology"
)

const (
	keyPrefix  = "terminology:"
	defaultTTL = time.Hour
)

// SearchCache stores ranked search results in Redis with a fixed TTL.
type SearchCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// New connects to Redis using the given URL. Returns an error when the URL
// does not parse or the server does not respond to a ping.
func New(redisURL string, logger zerolog.Logger) (*SearchCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &SearchCache{client: client, ttl: defaultTTL, logger: logger}, nil
}

// Get returns the cached results for a key, reporting a miss on any error.
func (c *SearchCache) Get(ctx context.Context, key string) ([]terminology.SearchResult, bool) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Msg("cache read failed")
		}
		return nil, false
	}

	var results []terminology.SearchResult
	if err := json.Unmarshal(data, &results); err != nil {
		c.logger.Warn().Err(err).Msg("cache entry corrupt, ignoring")
		return nil, false
	}
	return results, true
}

// Set stores results under a key. Failures are logged and swallowed; caching
// is best-effort.
func (c *SearchCache) Set(ctx context.Context, key string, results []terminology.SearchResult) {
	data, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("cache write failed")
	}
}

// Close releases the underlying connection pool.
func (c *SearchCache) Close() error {
	return c.client.Close()
}
