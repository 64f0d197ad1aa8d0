package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mimprep/profile-audit/internal/report"
	"github.com/mimprep/profile-audit/internal/results"
	"github.com/mimprep/profile-audit/internal/reveal"
	"github.com/mimprep/profile-audit/internal/rubric"
)

// GET /api/results/{code}, GET /api/cv-results/{code}
func GetReportHandler(store results.Store, cat *rubric.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := store.Get(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		w.Header().Set("Cache-Control", "private, max-age=60")
		writeJSON(w, http.StatusOK, report.Build(res.Code, res.Record, cat))
	}
}

type revealResponse struct {
	Code     string          `json:"code"`
	Timeline reveal.Timeline `json:"timeline"`
	AtMS     *int64          `json:"at_ms,omitempty"`
	Frame    *reveal.Frame   `json:"frame,omitempty"`
}

// GET /api/results/{code}/reveal[?at=ms]
//
// Returns the reveal schedule. With at, also the frame sampled that many milliseconds
// after the headline counter starts. Samples past the end of the schedule all return
// the final frame.
func GetRevealHandler(store results.Store, cat *rubric.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := store.Get(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		rep := report.Build(res.Code, res.Record, cat)
		out := revealResponse{Code: rep.Code, Timeline: rep.Reveal}
		if raw := r.URL.Query().Get("at"); raw != "" {
			at := int64(parseIntDefault(raw, -1))
			if at < 0 {
				http.Error(w, "at must be a non-negative number of milliseconds", http.StatusBadRequest)
				return
			}
			sample := min(at, rep.Reveal.TotalMS)
			s := rep.Sequencer()
			start := time.Unix(0, 0)
			s.Start(start)
			s.Tick(start.Add(time.Duration(sample) * time.Millisecond))
			f := s.Frame()
			out.AtMS, out.Frame = &at, &f
		}
		writeJSON(w, http.StatusOK, out)
	}
}
