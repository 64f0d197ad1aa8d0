package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mimprep/profile-audit/internal/record"
)

// Table is one of the result tables created by db.Open.
type Table string

const (
	ProfileTable Table = "profile_results"
	CVTable      Table = "cv_results"
)

type SQLStore struct {
	db    *sql.DB
	table Table
	now   func() time.Time
}

type SQLOption func(*SQLStore)

// WithTable selects the result table; the default is ProfileTable. Unknown tables are
// ignored.
func WithTable(t Table) SQLOption {
	return func(s *SQLStore) {
		if t == ProfileTable || t == CVTable {
			s.table = t
		}
	}
}

func NewSQLStore(db *sql.DB, opts ...SQLOption) *SQLStore {
	s := &SQLStore{db: db, table: ProfileTable, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *SQLStore) Put(ctx context.Context, code string, rec record.Record) error {
	code, err := NormalizeCode(code)
	if err != nil {
		return err
	}
	rj, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	sum := summarize(code, rec, time.Time{})
	now := s.now().Unix()
	// table comes from WithTable, never from the request
	_, err = s.db.ExecContext(ctx, `INSERT INTO `+string(s.table)+`
		(code,linkedin_url,first_name,last_name,global_total_points,global_total_maximum,record_json,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (code) DO UPDATE SET linkedin_url=EXCLUDED.linkedin_url, first_name=EXCLUDED.first_name,
			last_name=EXCLUDED.last_name, global_total_points=EXCLUDED.global_total_points,
			global_total_maximum=EXCLUDED.global_total_maximum, record_json=EXCLUDED.record_json,
			updated_at=EXCLUDED.updated_at`,
		code, sum.LinkedInURL, sum.FirstName, sum.LastName, sum.Points, sum.Maximum, string(rj), now, now)
	if err != nil {
		return fmt.Errorf("put result %s: %w", code, err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, code string) (Result, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return Result{}, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT code,record_json,created_at,updated_at FROM `+string(s.table)+` WHERE code=$1`, code)
	var (
		res              Result
		rj               string
		created, updated int64
	)
	if err := row.Scan(&res.Code, &rj, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Result{}, fmt.Errorf("%w: %s", ErrNotFound, code)
		}
		return Result{}, err
	}
	rec, err := record.Decode([]byte(rj))
	if err != nil {
		return Result{}, err
	}
	res.Record = rec
	res.CreatedAt = time.Unix(created, 0).UTC()
	res.UpdatedAt = time.Unix(updated, 0).UTC()
	return res, nil
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]Summary, error) {
	opts, col, err := opts.normalized()
	if err != nil {
		return nil, err
	}
	dir := "DESC"
	if opts.Asc {
		dir = "ASC"
	}
	// col comes from sortColumns and the table from WithTable, never from the request
	q := `SELECT code,linkedin_url,first_name,last_name,global_total_points,global_total_maximum,created_at
		FROM ` + string(s.table) + `
		WHERE $1 = '' OR LOWER(code || ' ' || first_name || ' ' || last_name || ' ' || linkedin_url) LIKE '%' || LOWER($1) || '%'
		ORDER BY ` + col + ` ` + dir + `, code ASC LIMIT $2 OFFSET $3`
	rows, err := s.db.QueryContext(ctx, q, opts.Q, opts.Limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Summary
	for rows.Next() {
		var (
			sm      Summary
			created int64
		)
		if err := rows.Scan(&sm.Code, &sm.LinkedInURL, &sm.FirstName, &sm.LastName, &sm.Points, &sm.Maximum, &created); err != nil {
			return nil, err
		}
		sm.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, sm)
	}
	return out, rows.Err()
}
