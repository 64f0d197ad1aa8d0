package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/mimprep/profile-audit/internal/submission"
)

type Submitter interface {
	Submit(ctx context.Context, req submission.Request) (submission.Receipt, error)
}

// POST /api/submissions
//
// Accepts multipart/form-data (with an optional "cv" file) or a JSON body.
func SubmitHandler(s Submitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submission.Request
		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/form-data") {
			r.Body = http.MaxBytesReader(w, r.Body, submission.MaxCVBytes+1<<20)
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				http.Error(w, "bad multipart form", http.StatusBadRequest)
				return
			}
			req = submission.Request{
				Email:              r.FormValue("email"),
				LinkedInURL:        r.FormValue("linkedin_url"),
				FeedbackGoal:       r.FormValue("feedback_goal"),
				Origin:             r.FormValue("origin"),
				LinkedInReflection: formBool(r.FormValue("linkedin_reflection")),
				AcceptInfo:         formBool(r.FormValue("accept_info")),
			}
			if f, fh, err := r.FormFile("cv"); err == nil {
				data, rerr := io.ReadAll(io.LimitReader(f, submission.MaxCVBytes+1))
				_ = f.Close()
				if rerr != nil {
					http.Error(w, "read cv", http.StatusBadRequest)
					return
				}
				req.CV = &submission.Attachment{Filename: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Data: data}
			}
		} else if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if origin := r.URL.Query().Get("origin"); origin != "" && req.Origin == "" {
			req.Origin = origin
		}

		rc, err := s.Submit(r.Context(), req)
		switch {
		case err == nil:
			writeJSON(w, http.StatusAccepted, rc)
		case errors.Is(err, submission.ErrCVTooLarge):
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		case errors.Is(err, submission.ErrInvalidLinkedInURL), errors.Is(err, submission.ErrInvalidRequest):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, submission.ErrNotConfigured):
			http.Error(w, "submissions are not configured", http.StatusServiceUnavailable)
		default:
			http.Error(w, "submission could not be forwarded", http.StatusBadGateway)
		}
	}
}

// formBool reads a checkbox value: "true", "1" or the browser default "on".
func formBool(s string) bool {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "on") {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}
