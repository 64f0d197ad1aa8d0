package results

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mimprep/profile-audit/internal/record"
)

// MemoryStore keeps results in process. Used offline and in tests.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]Result
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]Result), now: time.Now}
}

func (m *MemoryStore) Put(_ context.Context, code string, rec record.Record) error {
	code, err := NormalizeCode(code)
	if err != nil {
		return err
	}
	now := m.now().UTC().Truncate(time.Second)
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.rows[code]
	if !ok {
		res = Result{Code: code, CreatedAt: now}
	}
	res.Record = maps.Clone(rec)
	res.UpdatedAt = now
	m.rows[code] = res
	return nil
}

func (m *MemoryStore) Get(_ context.Context, code string) (Result, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return Result{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	res, ok := m.rows[code]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	res.Record = maps.Clone(res.Record)
	return res, nil
}

func (m *MemoryStore) List(_ context.Context, opts ListOpts) ([]Summary, error) {
	opts, col, err := opts.normalized()
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(opts.Q)
	m.mu.RLock()
	var all []Summary
	for code, res := range m.rows {
		s := summarize(code, res.Record, res.CreatedAt)
		hay := strings.ToLower(strings.Join([]string{s.Code, s.FirstName, s.LastName, s.LinkedInURL}, " "))
		if q == "" || strings.Contains(hay, q) {
			all = append(all, s)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(all, func(a, b Summary) int {
		var c int
		switch col {
		case "global_total_points":
			c = cmp.Compare(a.Points, b.Points)
		case "last_name":
			c = cmp.Compare(a.LastName, b.LastName)
		case "code":
			c = 0
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if !opts.Asc {
			c = -c
		}
		if c == 0 {
			c = cmp.Compare(a.Code, b.Code)
			if col == "code" && !opts.Asc {
				c = -c
			}
		}
		return c
	})
	if opts.Offset >= len(all) {
		return nil, nil
	}
	all = all[opts.Offset:]
	if len(all) > opts.Limit {
		all = all[:opts.Limit]
	}
	return all, nil
}
