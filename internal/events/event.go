// Package events defines the messages emitted by the shortener and their handlers.
package events

import (
	"time"

	"github.com/serroba/shorturl-api/internal/shortener"
)

// TopicLinkCreated is published once for every newly created short URL.
const TopicLinkCreated = "shorturl.link_created"

// LinkCreated is emitted after a new short URL record has been persisted.
type LinkCreated struct {
	Code        string    `json:"code"`
	OriginalURL string    `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewLinkCreated builds the event for a freshly stored record.
func NewLinkCreated(shortURL *shortener.ShortURL) *LinkCreated {
	return &LinkCreated{
		Code:        string(shortURL.Code),
		OriginalURL: shortURL.OriginalURL,
		CreatedAt:   shortURL.CreatedAt,
	}
}
