package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

const (
	formContentType = "application/x-www-form-urlencoded"
	shortenPath     = "/api/shorturl"
)

// urlField extracts the "url" field from a JSON or form-encoded body. Undecodable
// bodies yield an empty string, which then fails validation like any other bad input.
func urlField(contentType string, body []byte) string {
	mediaType, _, _ := mime.ParseMediaType(contentType)

	if mediaType == formContentType {
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return ""
		}

		return values.Get("url")
	}

	var payload struct {
		URL any `json:"url"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	s, _ := payload.URL.(string)

	return s
}

// EmptyShortenBody answers a body-less POST /api/shorturl with the invalid URL error.
// huma rejects empty raw bodies before the operation runs, with its own error model.
func EmptyShortenBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || strings.TrimSuffix(r.URL.Path, "/") != shortenPath {
			next.ServeHTTP(w, r)

			return
		}

		var first [1]byte

		n := 0
		if r.Body != nil {
			n, _ = io.ReadFull(r.Body, first[:])
		}

		if n == 0 {
			writeInvalidURL(w)

			return
		}

		r.Body = replayBody{Reader: io.MultiReader(bytes.NewReader(first[:n]), r.Body), Closer: r.Body}

		next.ServeHTTP(w, r)
	})
}

type replayBody struct {
	io.Reader
	io.Closer
}

func writeInvalidURL(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)

	_ = json.NewEncoder(w).Encode(errorBody{Error: msgInvalidURL})
}
