package store

import (
	"context"
	"sync"

	"github.com/serroba/shorturl-api/internal/shortener"
)

// MemoryStore is an in-memory implementation of shortener.Repository.
type MemoryStore struct {
	mu     sync.RWMutex
	byCode map[shortener.Code]shortener.ShortURL
	byURL  map[string]shortener.Code
}

// NewMemoryStore creates a new in-memory URL store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byCode: make(map[shortener.Code]shortener.ShortURL),
		byURL:  make(map[string]shortener.Code),
	}
}

// Create inserts the record if neither its code nor its original URL is taken.
func (m *MemoryStore) Create(_ context.Context, shortURL *shortener.ShortURL) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byURL[shortURL.OriginalURL]; ok {
		return shortener.ErrDuplicateURL
	}

	if _, ok := m.byCode[shortURL.Code]; ok {
		return shortener.ErrDuplicateCode
	}

	m.byCode[shortURL.Code] = *shortURL
	m.byURL[shortURL.OriginalURL] = shortURL.Code

	return nil
}

func (m *MemoryStore) GetByCode(_ context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	url, ok := m.byCode[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return &url, nil
}

func (m *MemoryStore) GetByOriginalURL(_ context.Context, originalURL string) (*shortener.ShortURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	code, ok := m.byURL[originalURL]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	url := m.byCode[code]

	return &url, nil
}

// Compile-time check.
var _ shortener.Repository = (*MemoryStore)(nil)
