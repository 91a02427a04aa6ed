package shortener_test

import (
	"context"
	"errors"
	"sync"

	"github.com/serroba/shorturl-api/internal/shortener"
)

var errMock = errors.New("mock error")

// mockRepository is an in-memory Repository whose calls can be counted and failed on demand.
type mockRepository struct {
	mu sync.Mutex

	byCode map[shortener.Code]*shortener.ShortURL
	byURL  map[string]*shortener.ShortURL

	createErrs      []error // consumed one per Create call before touching the maps
	getByCodeErr    error
	getByURLErr     error
	getByURLErrOnce bool

	createCalls   int
	getByCodeCall int
	getByURLCalls int
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		byCode: make(map[shortener.Code]*shortener.ShortURL),
		byURL:  make(map[string]*shortener.ShortURL),
	}
}

func (m *mockRepository) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.createCalls + m.getByCodeCall + m.getByURLCalls
}

func (m *mockRepository) Create(_ context.Context, shortURL *shortener.ShortURL) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.createCalls++

	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]

		if err != nil {
			return err
		}
	}

	if _, ok := m.byURL[shortURL.OriginalURL]; ok {
		return shortener.ErrDuplicateURL
	}

	if _, ok := m.byCode[shortURL.Code]; ok {
		return shortener.ErrDuplicateCode
	}

	stored := *shortURL
	m.byCode[shortURL.Code] = &stored
	m.byURL[shortURL.OriginalURL] = &stored

	return nil
}

func (m *mockRepository) GetByCode(_ context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getByCodeCall++

	if m.getByCodeErr != nil {
		return nil, m.getByCodeErr
	}

	u, ok := m.byCode[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	cp := *u

	return &cp, nil
}

func (m *mockRepository) GetByOriginalURL(_ context.Context, originalURL string) (*shortener.ShortURL, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getByURLCalls++

	if m.getByURLErr != nil {
		err := m.getByURLErr
		if m.getByURLErrOnce {
			m.getByURLErr = nil
		}

		return nil, err
	}

	u, ok := m.byURL[originalURL]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	cp := *u

	return &cp, nil
}

// sequenceGenerator returns the given codes in order, then repeats the last one.
func sequenceGenerator(codes ...shortener.Code) shortener.CodeGenerator {
	var (
		mu sync.Mutex
		i  int
	)

	return func() (shortener.Code, error) {
		mu.Lock()
		defer mu.Unlock()

		code := codes[min(i, len(codes)-1)]
		i++

		return code, nil
	}
}
