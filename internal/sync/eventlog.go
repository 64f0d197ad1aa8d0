// Package syncx is the append-only event journal. Submissions and imports are written
// here so an operator can replay what was forwarded to the automation.
package syncx

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const (
	TypeSubmissionForwarded = "SubmissionForwarded"
	TypeSubmissionRejected  = "SubmissionRejected"
	TypeResultImported      = "ResultImported"
)

type Event struct {
	Seq       int64  `json:"seq"`
	SiteID    string `json:"site_id"`
	Type      string `json:"type"`
	Key       string `json:"key"`
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

// NewEvent marshals payload into an event.
func NewEvent(typ, key string, payload any) (Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	return Event{Type: typ, Key: key, DataJSON: string(b)}, nil
}

type EventRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db, now: time.Now} }

// Append writes e and returns its sequence number.
func (r *EventRepo) Append(ctx context.Context, e Event) (int64, error) {
	if e.SiteID == "" {
		e.SiteID = "local"
	}
	var seq int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5) RETURNING seq`,
		e.SiteID, e.Type, e.Key, e.DataJSON, r.now().Unix()).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("append %s: %w", e.Type, err)
	}
	return seq, nil
}

// Since returns up to limit events after seq, oldest first. An empty typ matches all.
func (r *EventRepo) Since(ctx context.Context, typ string, seq int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, site_id, typ, key, data, created_at FROM event_log
		 WHERE seq > $1 AND ($2 = '' OR typ = $2)
		 ORDER BY seq LIMIT $3`, seq, typ, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Seq, &e.SiteID, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
