package shortener

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// MaxURLLength is the longest original URL accepted for shortening.
const MaxURLLength = 2048

// ValidateURL reports whether raw is an absolute http(s) URL with a host.
// The returned error always wraps ErrInvalidURL.
func ValidateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}

	if len(raw) > MaxURLLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidURL, MaxURLLength)
	}

	if strings.IndexFunc(raw, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) != -1 {
		return fmt.Errorf("%w: contains whitespace", ErrInvalidURL)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	if !u.IsAbs() || u.Opaque != "" {
		return fmt.Errorf("%w: not an absolute url", ErrInvalidURL)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}

	if u.Hostname() == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	return nil
}
