package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shorturl-api/internal/shortener"
)

const (
	redisCodePrefix     = "short_url:"
	redisOriginalPrefix = "short_url:original:"
)

const (
	createOK = iota
	createDuplicateURL
	createDuplicateCode
)

// createScript writes the record hash and the original-url index only if neither exists.
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 then
	return 1
end
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 2
end
redis.call('HSET', KEYS[1], 'code', ARGV[1], 'original_url', ARGV[2], 'created_at', ARGV[3])
redis.call('SET', KEYS[2], ARGV[1])
return 0
`)

// RedisStore is a Redis implementation of shortener.Repository.
// createScript touches keys in different hash slots, so the store takes a
// single-node client rather than a cluster-capable one.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis-backed URL store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Create(ctx context.Context, shortURL *shortener.ShortURL) error {
	keys := []string{codeKey(shortURL.Code), originalKey(shortURL.OriginalURL)}

	result, err := createScript.Run(ctx, r.client, keys,
		string(shortURL.Code),
		shortURL.OriginalURL,
		shortURL.CreatedAt.UnixNano(),
	).Int()
	if err != nil {
		return err
	}

	switch result {
	case createOK:
		return nil
	case createDuplicateURL:
		return shortener.ErrDuplicateURL
	case createDuplicateCode:
		return shortener.ErrDuplicateCode
	default:
		return fmt.Errorf("unexpected create result %d", result)
	}
}

func (r *RedisStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	fields, err := r.client.HGetAll(ctx, codeKey(code)).Result()
	if err != nil {
		return nil, err
	}

	if len(fields) == 0 {
		return nil, shortener.ErrNotFound
	}

	return decodeShortURL(fields), nil
}

func (r *RedisStore) GetByOriginalURL(ctx context.Context, originalURL string) (*shortener.ShortURL, error) {
	code, err := r.client.Get(ctx, originalKey(originalURL)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	return r.GetByCode(ctx, shortener.Code(code))
}

// Ping checks Redis connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func codeKey(code shortener.Code) string {
	return redisCodePrefix + string(code)
}

func originalKey(originalURL string) string {
	return redisOriginalPrefix + urlDigest(originalURL)
}

// urlDigest keys the original-url index so arbitrarily long URLs map to bounded keys.
func urlDigest(originalURL string) string {
	sum := sha256.Sum256([]byte(originalURL))

	return hex.EncodeToString(sum[:])
}

func encodeShortURL(url *shortener.ShortURL) map[string]any {
	return map[string]any{
		"code":         string(url.Code),
		"original_url": url.OriginalURL,
		"created_at":   url.CreatedAt.UnixNano(),
	}
}

func decodeShortURL(fields map[string]string) *shortener.ShortURL {
	var createdAt time.Time

	if ts, ok := fields["created_at"]; ok {
		if nanos, err := strconv.ParseInt(ts, 10, 64); err == nil {
			createdAt = time.Unix(0, nanos).UTC()
		}
	}

	return &shortener.ShortURL{
		Code:        shortener.Code(fields["code"]),
		OriginalURL: fields["original_url"],
		CreatedAt:   createdAt,
	}
}

// Compile-time check.
var _ shortener.Repository = (*RedisStore)(nil)
