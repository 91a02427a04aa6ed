package shortener

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultMaxAttempts bounds how many codes are tried before giving up on a new record.
const DefaultMaxAttempts = 5

// Service implements lookup-or-create and resolution of short URLs.
type Service struct {
	store        Repository
	generateCode CodeGenerator
	maxAttempts  int
	now          func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithMaxAttempts sets how many generated codes are tried when every previous one collided.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a new shortening service.
func NewService(store Repository, generator CodeGenerator, opts ...Option) *Service {
	s := &Service{
		store:        store,
		generateCode: generator,
		maxAttempts:  DefaultMaxAttempts,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// FindOrCreate returns the record for rawURL, creating it if none exists.
// The boolean result reports whether a new record was created by this call.
//
// Concurrent callers racing on the same new URL are reconciled by the repository's
// uniqueness constraint: the loser re-reads and returns the winner's record.
func (s *Service) FindOrCreate(ctx context.Context, rawURL string) (*ShortURL, bool, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, false, err
	}

	existing, err := s.store.GetByOriginalURL(ctx, rawURL)
	if err == nil {
		return existing, false, nil
	}

	if !errors.Is(err, ErrNotFound) {
		return nil, false, storeError(err)
	}

	for range s.maxAttempts {
		code, err := s.generateCode()
		if err != nil {
			if !errors.Is(err, ErrGeneratorUnavailable) {
				err = fmt.Errorf("%w: %w", ErrGeneratorUnavailable, err)
			}

			return nil, false, err
		}

		shortURL := &ShortURL{
			Code:        code,
			OriginalURL: rawURL,
			CreatedAt:   s.now().UTC(),
		}

		err = s.store.Create(ctx, shortURL)

		switch {
		case err == nil:
			return shortURL, true, nil
		case errors.Is(err, ErrDuplicateCode):
			continue
		case errors.Is(err, ErrDuplicateURL):
			winner, err := s.store.GetByOriginalURL(ctx, rawURL)
			if err != nil {
				return nil, false, storeError(err)
			}

			return winner, false, nil
		default:
			return nil, false, storeError(err)
		}
	}

	return nil, false, fmt.Errorf("%w: no free code after %d attempts", ErrGeneratorUnavailable, s.maxAttempts)
}

// FindByCode resolves a short code to its record.
func (s *Service) FindByCode(ctx context.Context, code Code) (*ShortURL, error) {
	if code == "" {
		return nil, ErrNotFound
	}

	shortURL, err := s.store.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, storeError(err)
	}

	return shortURL, nil
}

func storeError(err error) error {
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}

	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
