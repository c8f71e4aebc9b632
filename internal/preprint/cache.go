package preprint

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prereview/prereview/internal/platform/logging"
	"github.com/sirupsen/logrus"
)

const cacheKeyPrefix = "preprint:"

// Cache stores resolved preprints by DOI.
type Cache interface {
	Load(ctx context.Context, doi string) (Preprint, bool, error)
	Store(ctx context.Context, preprint Preprint, ttl time.Duration) error
}

// CachingResolver serves preprints from a cache before asking the registry.
// Cache failures are logged and otherwise ignored.
type CachingResolver struct {
	next   Getter
	cache  Cache
	ttl    time.Duration
	logger logrus.FieldLogger
}

// NewCachingResolver wraps next. A nil cache returns next unwrapped.
func NewCachingResolver(next Getter, cache Cache, ttl time.Duration, logger logrus.FieldLogger) Getter {
	if cache == nil {
		return next
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &CachingResolver{next: next, cache: cache, ttl: ttl, logger: logger}
}

// Get implements Getter.
func (c *CachingResolver) Get(ctx context.Context, id ID) (Preprint, error) {
	cached, ok, err := c.cache.Load(ctx, id.DOI)
	if err != nil {
		c.logger.WithError(err).WithField("doi", id.DOI).Warn("preprint cache load failed")
	}
	if ok {
		return cached, nil
	}
	found, err := c.next.Get(ctx, id)
	if err != nil {
		return Preprint{}, err
	}
	if err := c.cache.Store(ctx, found, c.ttl); err != nil {
		c.logger.WithError(err).WithField("doi", id.DOI).Warn("preprint cache store failed")
	}
	return found, nil
}

// RedisCache keeps preprints as JSON values in Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to the Redis server at rawURL, for example
// redis://localhost:6379/0.
func NewRedisCache(rawURL string) (*RedisCache, error) {
	options, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: redis.NewClient(options)}, nil
}

// Load implements Cache.
func (r *RedisCache) Load(ctx context.Context, doi string) (Preprint, bool, error) {
	raw, err := r.client.Get(ctx, cacheKeyPrefix+doi).Bytes()
	if errors.Is(err, redis.Nil) {
		return Preprint{}, false, nil
	}
	if err != nil {
		return Preprint{}, false, err
	}
	var preprint Preprint
	if err := json.Unmarshal(raw, &preprint); err != nil {
		return Preprint{}, false, err
	}
	return preprint, true, nil
}

// Store implements Cache.
func (r *RedisCache) Store(ctx context.Context, preprint Preprint, ttl time.Duration) error {
	raw, err := json.Marshal(preprint)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, cacheKeyPrefix+preprint.ID.DOI, raw, ttl).Err()
}

// Close releases the Redis connection pool.
func (r *RedisCache) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}
