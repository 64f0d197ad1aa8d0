package http

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mimprep/profile-audit/internal/storage"
)

// MountCVs serves uploaded CVs to operators.
func MountCVs(r chi.Router, bs storage.BlobStore) {
	// GET /cvs/*   -> returns the blob at whatever follows /cvs/
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := bs.Get(r.Context(), "cv/"+key)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			http.Error(w, "not found", http.StatusNotFound)
			return
		case errors.Is(err, storage.ErrInvalidKey):
			http.Error(w, "invalid key", http.StatusBadRequest)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer rc.Close()
		ct := mime.TypeByExtension(path.Ext(key))
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		w.Header().Set("Content-Disposition", `attachment; filename="`+path.Base(key)+`"`)
		_, _ = io.Copy(w, rc)
	})
}
