package handlers

import (
	"encoding/json"
	"net/http"
)

// Response bodies of the public contract. They are written verbatim.
const (
	msgInvalidURL  = "Invalid URL"
	msgNoURLFound  = "No URL found"
	msgServerError = "Server error"
)

// apiError is a huma.StatusError whose JSON form is exactly its body, so the
// documented bodies are returned instead of huma's problem+json envelope.
type apiError struct {
	status int
	body   any
}

func (e *apiError) Error() string {
	return http.StatusText(e.status)
}

func (e *apiError) GetStatus() int {
	return e.status
}

func (e *apiError) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.body)
}

type errorBody struct {
	Error string `json:"error"`
}

func errInvalidURL() error {
	return &apiError{status: http.StatusBadRequest, body: errorBody{Error: msgInvalidURL}}
}

// errNoURLFound keeps the original 400 status for unknown codes for client compatibility.
func errNoURLFound() error {
	return &apiError{status: http.StatusBadRequest, body: msgNoURLFound}
}

func errServer() error {
	return &apiError{status: http.StatusInternalServerError, body: msgServerError}
}
