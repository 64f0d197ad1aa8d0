package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mimprep/profile-audit/internal/linkedin"
)

type ProfileSearcher interface {
	Search(ctx context.Context, q linkedin.Query) ([]linkedin.Profile, error)
}

// POST /api/linkedin/search  { "firstName": "...", "lastName": "..." }
func SearchProfilesHandler(s ProfileSearcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q linkedin.Query
		if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&q); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		profiles, err := s.Search(r.Context(), q)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, map[string]any{"profiles": profiles})
		case errors.Is(err, linkedin.ErrNameRequired):
			http.Error(w, "firstName and lastName are required", http.StatusBadRequest)
		case errors.Is(err, linkedin.ErrNotConfigured):
			http.Error(w, "search is not configured", http.StatusServiceUnavailable)
		case errors.Is(err, linkedin.ErrSearchTimeout), errors.Is(err, context.DeadlineExceeded):
			http.Error(w, "search took too long", http.StatusGatewayTimeout)
		default:
			http.Error(w, "search failed", http.StatusBadGateway)
		}
	}
}
