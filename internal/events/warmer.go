package events

import (
	"context"

	"github.com/serroba/shorturl-api/internal/messaging"
	"github.com/serroba/shorturl-api/internal/shortener"
	"go.uber.org/zap"
)

// Primer writes a record into a read cache.
type Primer interface {
	Prime(ctx context.Context, shortURL *shortener.ShortURL)
}

// NewCacheWarmer returns a handler that primes the cache with newly created links
// so the first redirect is served without a database round trip.
func NewCacheWarmer(cache Primer, logger *zap.Logger) messaging.Handler[LinkCreated] {
	return func(ctx context.Context, event *LinkCreated) error {
		if event.Code == "" || event.OriginalURL == "" {
			logger.Warn("skipping incomplete event", zap.String("code", event.Code))

			return nil
		}

		cache.Prime(ctx, &shortener.ShortURL{
			Code:        shortener.Code(event.Code),
			OriginalURL: event.OriginalURL,
			CreatedAt:   event.CreatedAt,
		})

		logger.Debug("warmed cache", zap.String("code", event.Code))

		return nil
	}
}
