package shortener

import "errors"

var (
	// ErrInvalidURL is returned when a submitted URL fails validation.
	ErrInvalidURL = errors.New("invalid url")

	// ErrNotFound is returned when no record matches the lookup key.
	ErrNotFound = errors.New("url not found")

	// ErrStoreUnavailable wraps any failure of the backing persistence medium.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrGeneratorUnavailable is returned when no short code could be produced.
	ErrGeneratorUnavailable = errors.New("code generator unavailable")

	// ErrDuplicateCode is returned by Repository.Create when the code is already taken.
	ErrDuplicateCode = errors.New("short code already exists")

	// ErrDuplicateURL is returned by Repository.Create when the original URL is already stored.
	ErrDuplicateURL = errors.New("original url already exists")
)
