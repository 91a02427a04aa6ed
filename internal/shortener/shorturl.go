package shortener

import "time"

// Code represents a short URL code.
type Code string

// ShortURL represents a shortened URL entity. Records are never mutated once created.
type ShortURL struct {
	Code        Code
	OriginalURL string
	CreatedAt   time.Time
}
