package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shorturl-api/internal/shortener"
	"go.uber.org/zap"
)

const (
	cachePrefix      = "short_url_cache:"
	cacheIndexPrefix = "short_url_cache:original:"
)

var errIncompleteEntry = errors.New("incomplete cache entry")

// RedisCache holds short URL records keyed by code, plus an index by original URL.
// It needs no backing store, so the event consumer can warm it on its own.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache creates a cache whose entries expire after ttl. A zero ttl keeps them forever.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

// Prime writes a record into the cache. Failures are logged and otherwise ignored.
func (c *RedisCache) Prime(ctx context.Context, url *shortener.ShortURL) {
	key := cachePrefix + string(url.Code)

	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key, encodeShortURL(url))
	pipe.Set(ctx, cacheIndexKey(url.OriginalURL), string(url.Code), c.ttl)

	if c.ttl > 0 {
		pipe.Expire(ctx, key, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("failed to cache short url",
			zap.String("code", string(url.Code)),
			zap.Error(err),
		)
	}
}

func (c *RedisCache) byCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	result, err := c.client.HGetAll(ctx, cachePrefix+string(code)).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, shortener.ErrNotFound
	}

	url := decodeShortURL(result)
	if url.Code == "" || url.OriginalURL == "" {
		return nil, errIncompleteEntry
	}

	return url, nil
}

func (c *RedisCache) byOriginalURL(ctx context.Context, originalURL string) (*shortener.ShortURL, error) {
	code, err := c.client.Get(ctx, cacheIndexKey(originalURL)).Result()
	if err != nil {
		return nil, err
	}

	url, err := c.byCode(ctx, shortener.Code(code))
	if err != nil {
		return nil, err
	}

	// A digest collision or a stale index entry must not answer for another URL.
	if url.OriginalURL != originalURL {
		return nil, shortener.ErrNotFound
	}

	return url, nil
}

// RedisCacheRepository wraps a Repository with Redis caching for reads.
// The wrapped store stays the source of truth; cache errors only cost a round trip.
type RedisCacheRepository struct {
	store shortener.Repository
	cache *RedisCache
}

// NewRedisCacheRepository puts cache in front of store.
func NewRedisCacheRepository(store shortener.Repository, cache *RedisCache) *RedisCacheRepository {
	return &RedisCacheRepository{store: store, cache: cache}
}

// Create stores a short URL in the underlying store and updates the cache.
func (r *RedisCacheRepository) Create(ctx context.Context, shortURL *shortener.ShortURL) error {
	if err := r.store.Create(ctx, shortURL); err != nil {
		return err
	}

	r.cache.Prime(ctx, shortURL)

	return nil
}

// GetByCode retrieves a short URL by its code, checking cache first.
func (r *RedisCacheRepository) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	if url, err := r.cache.byCode(ctx, code); err == nil {
		return url, nil
	}

	url, err := r.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	r.cache.Prime(ctx, url)

	return url, nil
}

// GetByOriginalURL retrieves a short URL by its original URL, checking the cache index first.
func (r *RedisCacheRepository) GetByOriginalURL(ctx context.Context, originalURL string) (*shortener.ShortURL, error) {
	if url, err := r.cache.byOriginalURL(ctx, originalURL); err == nil {
		return url, nil
	}

	url, err := r.store.GetByOriginalURL(ctx, originalURL)
	if err != nil {
		return nil, err
	}

	r.cache.Prime(ctx, url)

	return url, nil
}

func cacheIndexKey(originalURL string) string {
	return cacheIndexPrefix + urlDigest(originalURL)
}

// Compile-time check.
var _ shortener.Repository = (*RedisCacheRepository)(nil)
