package shortener

import "context"

// Repository defines the persistence operations for short URLs.
//
// Implementations must enforce uniqueness of both Code and OriginalURL in Create,
// reporting ErrDuplicateCode or ErrDuplicateURL instead of overwriting.
type Repository interface {
	Create(ctx context.Context, shortURL *ShortURL) error
	GetByCode(ctx context.Context, code Code) (*ShortURL, error)
	GetByOriginalURL(ctx context.Context, originalURL string) (*ShortURL, error)
}
