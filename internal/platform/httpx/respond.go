// Package httpx provides JSON response helpers for the API surface.
//
// Failed calls always carry the body {"error": "<message>"}; client-side
// fetchers rely on "error" being the message field.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the wire shape of every failed API response.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error sends a failure response with the {"error": message} body.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message})
}

// DecodeJSON decodes a JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
