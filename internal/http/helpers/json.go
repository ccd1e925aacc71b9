// Package helpers holds small request/response utilities shared by the
// controllers.
package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/lanahead/lanahead/internal/http/errors"
)

// ReadJSON decodes a JSON body tolerantly (unknown fields pass) with a 1MB
// cap. Returns false after writing the error response itself.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if !strings.Contains(ct, "application/json") {
		apperrors.WriteError(w, r, apperrors.ErrBadRequest.WithDetail("Content-Type must be application/json"))
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		apperrors.WriteError(w, r, apperrors.ErrInvalidJSON)
		return false
	}
	return true
}

// WriteJSON writes v as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NoContent finishes a request that has nothing to report.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
