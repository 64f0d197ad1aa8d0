package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mimprep/profile-audit/internal/auth/middleware"
	"github.com/mimprep/profile-audit/internal/export"
	"github.com/mimprep/profile-audit/internal/record"
	"github.com/mimprep/profile-audit/internal/results"
	syncx "github.com/mimprep/profile-audit/internal/sync"
)

// EventLog is the journal the admin surface writes imports to and reads from.
type EventLog interface {
	Append(ctx context.Context, e syncx.Event) (int64, error)
	Since(ctx context.Context, typ string, seq int64, limit int) ([]syncx.Event, error)
}

func listOpts(r *http.Request) results.ListOpts {
	q := r.URL.Query()
	return results.ListOpts{
		Q:      strings.TrimSpace(q.Get("q")),
		Sort:   q.Get("sort"),
		Asc:    strings.EqualFold(q.Get("order"), "asc"),
		Limit:  parseIntDefault(q.Get("limit"), 50),
		Offset: parseIntDefault(q.Get("offset"), 0),
	}
}

// GET /admin/results?q=&sort=&order=&limit=&offset=
func ListResultsHandler(store results.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.List(r.Context(), listOpts(r))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if list == nil {
			list = []results.Summary{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /admin/results/{code}/record returns the stored row as written by the automation.
func GetRecordHandler(store results.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := store.Get(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// PUT /admin/results/{code}  body: the flat result row
func PutResultHandler(store results.Store, journal EventLog, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := results.NormalizeCode(chi.URLParam(r, "code"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, 4<<20))
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}
		rec, err := record.Decode(body)
		if err != nil || rec == nil {
			http.Error(w, "expected a JSON object", http.StatusBadRequest)
			return
		}
		if err := store.Put(r.Context(), code, rec); err != nil {
			writeStoreError(w, err)
			return
		}
		var seq int64
		if journal != nil {
			g := record.GlobalTotals(rec)
			e, err := syncx.NewEvent(syncx.TypeResultImported, code, map[string]any{
				"by":      authmw.SubjectFromContext(r.Context()),
				"points":  g.Points,
				"maximum": g.Maximum,
			})
			if err == nil {
				seq, err = journal.Append(r.Context(), e)
			}
			if err != nil {
				logger.Warn("journal append failed", "code", code, "error", err)
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"code": code, "seq": seq})
	}
}

// GET /admin/results/export.xlsx?q=&sort=&order=
func ExportResultsHandler(store results.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := listOpts(r)
		opts.Limit, opts.Offset = 500, 0
		var all []results.Summary
		for {
			page, err := store.List(r.Context(), opts)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			all = append(all, page...)
			if len(page) < opts.Limit {
				break
			}
			opts.Offset += len(page)
		}
		now := time.Now().UTC()
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="results-%s.xlsx"`, now.Format("20060102")))
		if err := export.WriteResults(w, all, now); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// GET /admin/events?type=&since=&limit=
func ListEventsHandler(journal EventLog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		events, err := journal.Since(r.Context(), q.Get("type"),
			int64(parseIntDefault(q.Get("since"), 0)), parseIntDefault(q.Get("limit"), 100))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if events == nil {
			events = []syncx.Event{}
		}
		writeJSON(w, http.StatusOK, events)
	}
}
