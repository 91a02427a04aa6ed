package store

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/shorturl-api/internal/shortener"
)

//go:embed schema.sql
var schemaSQL string

const (
	uniqueViolation = "23505"

	codeConstraint        = "short_urls_code_key"
	originalURLConstraint = "short_urls_original_url_key"

	defaultQueryTimeout = 5 * time.Second
)

// PostgresStore is a PostgreSQL implementation of shortener.Repository.
type PostgresStore struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewPostgresStore creates a new PostgreSQL-backed URL store. A non-positive timeout
// falls back to five seconds per query.
func NewPostgresStore(pool *pgxpool.Pool, timeout time.Duration) *PostgresStore {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}

	return &PostgresStore{pool: pool, timeout: timeout}
}

// EnsureSchema creates the short_urls table and its unique constraints if missing.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	_, err := p.pool.Exec(ctx, schemaSQL)

	return err
}

func (p *PostgresStore) Create(ctx context.Context, shortURL *shortener.ShortURL) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	query := `
		INSERT INTO short_urls (code, original_url, created_at)
		VALUES ($1, $2, $3)
	`

	_, err := p.pool.Exec(ctx, query,
		string(shortURL.Code),
		shortURL.OriginalURL,
		shortURL.CreatedAt,
	)

	return classifyInsertError(err)
}

func (p *PostgresStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	return p.getOne(ctx, `
		SELECT code, original_url, created_at
		FROM short_urls
		WHERE code = $1
	`, string(code))
}

func (p *PostgresStore) GetByOriginalURL(ctx context.Context, originalURL string) (*shortener.ShortURL, error) {
	return p.getOne(ctx, `
		SELECT code, original_url, created_at
		FROM short_urls
		WHERE original_url = $1
	`, originalURL)
}

func (p *PostgresStore) getOne(ctx context.Context, query string, arg string) (*shortener.ShortURL, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var (
		url  shortener.ShortURL
		code string
	)

	err := p.pool.QueryRow(ctx, query, arg).Scan(&code, &url.OriginalURL, &url.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	url.Code = shortener.Code(code)

	return &url, nil
}

// Ping checks PostgreSQL connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.pool.Ping(ctx)
}

// Shutdown closes the connection pool.
func (p *PostgresStore) Shutdown() error {
	p.pool.Close()

	return nil
}

// classifyInsertError maps unique violations onto the repository's duplicate errors.
func classifyInsertError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}

	switch pgErr.ConstraintName {
	case originalURLConstraint:
		return shortener.ErrDuplicateURL
	case codeConstraint:
		return shortener.ErrDuplicateCode
	default:
		return err
	}
}

// Compile-time check.
var _ shortener.Repository = (*PostgresStore)(nil)
