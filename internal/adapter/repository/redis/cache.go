package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/orgconf/internal/domain"
	"github.com/iho/orgconf/internal/infrastructure/metrics"
)

// OracleNamespace holds cached location oracle responses.
const OracleNamespace = "oracle"

// Cache implements usecase.Cache using Redis. Keys are stored under
// orgconf:cache:<namespace>: so oracle responses can be flushed without
// touching sessions or idempotency records.
type Cache struct {
	client  *redis.Client
	prefix  string
	metrics *metrics.Metrics
}

// NewCache creates a new Cache for namespace.
func NewCache(client *redis.Client, namespace string, m *metrics.Metrics) *Cache {
	return &Cache{
		client:  client,
		prefix:  "orgconf:cache:" + namespace + ":",
		metrics: m,
	}
}

// Get retrieves a value by key. A missing key yields domain.ErrCacheMiss.
func (c *Cache) Get(ctx context.Context, key string) (_ []byte, err error) {
	defer c.observe("cache_get", time.Now(), &err)

	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	return val, err
}

// Set stores a value with TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) (err error) {
	defer c.observe("cache_set", time.Now(), &err)
	return c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) (err error) {
	defer c.observe("cache_delete", time.Now(), &err)
	return c.client.Del(ctx, c.prefix+key).Err()
}

// Flush removes every key in the namespace and returns how many were deleted.
func (c *Cache) Flush(ctx context.Context) (deleted int64, err error) {
	defer c.observe("cache_flush", time.Now(), &err)

	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := c.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			return deleted, err
		}
		deleted += n
	}
	return deleted, iter.Err()
}

// observe records the operation. A cache miss is not an error.
func (c *Cache) observe(op string, start time.Time, errp *error) {
	if c.metrics == nil {
		return
	}

	c.metrics.RedisOperations.WithLabelValues(op).Inc()
	c.metrics.RedisDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if errp != nil && *errp != nil && !errors.Is(*errp, domain.ErrCacheMiss) {
		c.metrics.RedisErrors.WithLabelValues(op).Inc()
	}
}
