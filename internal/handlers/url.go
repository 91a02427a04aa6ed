package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/serroba/shorturl-api/internal/events"
	"github.com/serroba/shorturl-api/internal/messaging"
	"github.com/serroba/shorturl-api/internal/shortener"
	"go.uber.org/zap"
)

// URLHandler handles URL shortening operations.
type URLHandler struct {
	service            *shortener.Service
	publishLinkCreated messaging.Publish[events.LinkCreated]
	logger             *zap.Logger
}

// NewURLHandler creates a new URL handler.
func NewURLHandler(
	service *shortener.Service,
	publishLinkCreated messaging.Publish[events.LinkCreated],
	logger *zap.Logger,
) *URLHandler {
	return &URLHandler{
		service:            service,
		publishLinkCreated: publishLinkCreated,
		logger:             logger,
	}
}

func (h *URLHandler) CreateShortURL(ctx context.Context, req *CreateShortURLRequest) (*CreateShortURLResponse, error) {
	rawURL := urlField(req.ContentType, req.RawBody)

	shortURL, created, err := h.service.FindOrCreate(ctx, rawURL)
	if err != nil {
		if errors.Is(err, shortener.ErrInvalidURL) {
			return nil, errInvalidURL()
		}

		h.logger.Error("failed to shorten url",
			zap.String("url", rawURL),
			zap.Error(err),
		)

		return nil, errServer()
	}

	if created {
		if err := h.publishLinkCreated(ctx, events.NewLinkCreated(shortURL)); err != nil {
			h.logger.Error("failed to publish link created event",
				zap.String("code", string(shortURL.Code)),
				zap.Error(err),
			)
		}
	}

	resp := &CreateShortURLResponse{}
	resp.Body.OriginalURL = shortURL.OriginalURL
	resp.Body.ShortURL = string(shortURL.Code)

	return resp, nil
}

func (h *URLHandler) RedirectToURL(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	shortURL, err := h.service.FindByCode(ctx, shortener.Code(req.ShortURL))
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			return nil, errNoURLFound()
		}

		h.logger.Error("failed to resolve short url",
			zap.String("code", req.ShortURL),
			zap.Error(err),
		)

		return nil, errServer()
	}

	resp := &RedirectResponse{
		Status: http.StatusFound,
	}
	resp.Headers.Location = shortURL.OriginalURL

	return resp, nil
}

// RedirectWithoutCode handles the lookup route when the code segment is omitted.
func (h *URLHandler) RedirectWithoutCode(ctx context.Context, _ *struct{}) (*RedirectResponse, error) {
	return h.RedirectToURL(ctx, &RedirectRequest{})
}

func (h *URLHandler) Hello(_ context.Context, _ *struct{}) (*HelloResponse, error) {
	resp := &HelloResponse{}
	resp.Body.Greeting = "hello API"

	return resp, nil
}
