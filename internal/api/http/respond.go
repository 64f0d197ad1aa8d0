package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mimprep/profile-audit/internal/results"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeStoreError maps result store errors onto status codes.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, results.ErrInvalidCode):
		http.Error(w, "invalid code", http.StatusBadRequest)
	case errors.Is(err, results.ErrNotFound):
		http.Error(w, "result not found", http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
