// Package results stores the flat result rows written by the analysis automation,
// keyed by the opaque code handed to the visitor.
package results

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mimprep/profile-audit/internal/record"
)

var (
	ErrNotFound    = errors.New("result not found")
	ErrInvalidCode = errors.New("invalid result code")
)

var codePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// NormalizeCode trims code and checks it is a plausible result code.
func NormalizeCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if !codePattern.MatchString(code) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	return code, nil
}

type Result struct {
	Code      string        `json:"code"`
	Record    record.Record `json:"record"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Summary is the list view of a result, with the identity and headline columns only.
type Summary struct {
	Code        string    `json:"code"`
	LinkedInURL string    `json:"linkedin_url"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Points      int       `json:"global_total_points"`
	Maximum     int       `json:"global_total_maximum"`
	CreatedAt   time.Time `json:"created_at"`
}

// Percent is Points/Maximum*100, 0 when there is no maximum.
func (s Summary) Percent() float64 {
	if s.Maximum <= 0 {
		return 0
	}
	return float64(s.Points) / float64(s.Maximum) * 100
}

func summarize(code string, rec record.Record, created time.Time) Summary {
	p := record.GetProfile(rec)
	g := record.GlobalTotals(rec)
	return Summary{
		Code:        code,
		LinkedInURL: p.LinkedInURL,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Points:      g.Points,
		Maximum:     g.Maximum,
		CreatedAt:   created,
	}
}

type ListOpts struct {
	Q      string // substring of code, name or LinkedIn URL
	Sort   string // created_at|global_total_points|last_name|code (default: created_at)
	Asc    bool   // default descending
	Limit  int
	Offset int
}

const (
	defaultLimit = 50
	maxLimit     = 500
)

// sortColumns whitelists the columns a list may be ordered by.
var sortColumns = map[string]string{
	"":                    "created_at",
	"created_at":          "created_at",
	"global_total_points": "global_total_points",
	"points":              "global_total_points",
	"last_name":           "last_name",
	"name":                "last_name",
	"code":                "code",
}

func (o ListOpts) normalized() (ListOpts, string, error) {
	col, ok := sortColumns[o.Sort]
	if !ok {
		return o, "", fmt.Errorf("unsupported sort %q", o.Sort)
	}
	if o.Limit <= 0 {
		o.Limit = defaultLimit
	}
	if o.Limit > maxLimit {
		o.Limit = maxLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	o.Q = strings.TrimSpace(o.Q)
	return o, col, nil
}

type Store interface {
	Get(ctx context.Context, code string) (Result, error)
	Put(ctx context.Context, code string, rec record.Record) error
	List(ctx context.Context, opts ListOpts) ([]Summary, error)
}
