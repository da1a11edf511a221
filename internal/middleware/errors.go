package middleware

import (
	"encoding/json"
	"net/http"
)

// errorBody mirrors the JSON error envelope written by the handlers.
type errorBody struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// writeError writes a JSON error with the shared envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Message: message, StatusCode: status})
}
