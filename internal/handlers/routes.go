package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// APIConfig returns the huma configuration for the public API. The schema link hook
// is dropped so response bodies contain only their documented fields.
func APIConfig() huma.Config {
	config := huma.DefaultConfig("URL Shortener", "1.0.0")
	config.CreateHooks = nil

	return config
}

// RegisterRoutes registers all URL shortener routes.
func RegisterRoutes(api huma.API, urlHandler *URLHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "create-short-url",
		Method:      http.MethodPost,
		Path:        "/api/shorturl",
		Summary:     "Create short URL",
		Description: "Returns the short code for a URL, creating it on first submission.",
		Tags:        []string{"URLs"},
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, urlHandler.CreateShortURL)

	huma.Register(api, huma.Operation{
		OperationID:   "redirect-short-url",
		Method:        http.MethodGet,
		Path:          "/api/shorturl/{short_url}",
		Summary:       "Redirect to original URL",
		Description:   "Redirects to the original URL associated with the short code.",
		Tags:          []string{"URLs"},
		DefaultStatus: http.StatusFound,
		Errors:        []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, urlHandler.RedirectToURL)

	huma.Register(api, huma.Operation{
		OperationID:   "redirect-short-url-empty",
		Method:        http.MethodGet,
		Path:          "/api/shorturl",
		Summary:       "Redirect without a code",
		Description:   "Always answers that no URL was found.",
		Tags:          []string{"URLs"},
		DefaultStatus: http.StatusFound,
		Hidden:        true,
	}, urlHandler.RedirectWithoutCode)

	huma.Register(api, huma.Operation{
		OperationID: "hello",
		Method:      http.MethodGet,
		Path:        "/api/hello",
		Summary:     "Greeting",
		Tags:        []string{"Misc"},
	}, urlHandler.Hello)
}
