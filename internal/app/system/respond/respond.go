// Package respond writes JSON API responses in the standard envelope.
//
// Success bodies are encoded as-is; failures use {"error": "..."} or, for
// field-validation failures, {"errors": [...]}.
package respond

import (
	"encoding/json"
	"net/http"
)

// JSON writes v as the response body with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes the single-error envelope.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"error": msg})
}

// ValidationErrors writes the per-field error envelope with status 400.
func ValidationErrors(w http.ResponseWriter, errs []string) {
	JSON(w, http.StatusBadRequest, map[string][]string{"errors": errs})
}

// Common shorthands used across handlers.

// BadRequest writes a 400 with the given message.
func BadRequest(w http.ResponseWriter, msg string) {
	Error(w, http.StatusBadRequest, msg)
}

// Unauthorized writes a 401 with the given message.
func Unauthorized(w http.ResponseWriter, msg string) {
	Error(w, http.StatusUnauthorized, msg)
}

// Forbidden writes a 403 with the given message.
func Forbidden(w http.ResponseWriter, msg string) {
	Error(w, http.StatusForbidden, msg)
}

// NotFound writes a 404 with the given message.
func NotFound(w http.ResponseWriter, msg string) {
	Error(w, http.StatusNotFound, msg)
}

// ServerError writes a 500 with a generic message. Internal detail
// stays in the logs.
func ServerError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, "internal server error")
}
