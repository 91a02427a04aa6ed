package handlers

// CreateShortURLRequest is the request for shortening a URL. The body is read raw so
// that both JSON and form-encoded submissions of the "url" field are accepted.
type CreateShortURLRequest struct {
	ContentType string `doc:"application/json or application/x-www-form-urlencoded" header:"Content-Type"`
	RawBody     []byte `doc:"JSON object or form with a url field" required:"false"`
}

// CreateShortURLResponse is the response for a successfully shortened URL.
type CreateShortURLResponse struct {
	Body struct {
		OriginalURL string `doc:"The submitted URL"  example:"https://www.example.com" json:"original_url"`
		ShortURL    string `doc:"The short code"     example:"aZ3kQ9xB"                json:"short_url"`
	}
}

// RedirectRequest is the request for redirecting a short URL.
type RedirectRequest struct {
	ShortURL string `doc:"The short code" example:"aZ3kQ9xB" path:"short_url"`
}

// RedirectResponse redirects the client to the original URL.
type RedirectResponse struct {
	Status  int
	Headers struct {
		Location string `doc:"The original URL" header:"Location"`
	}
}

// HelloResponse is the response for the greeting endpoint.
type HelloResponse struct {
	Body struct {
		Greeting string `example:"hello API" json:"greeting"`
	}
}
