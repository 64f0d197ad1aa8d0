package record

import (
	"fmt"
	"time"
)

// Criterion is one indexed sub-criterion as stored.
type Criterion struct {
	Section     string
	Index       int
	Title       string
	Description string
	Points      int
	Maximum     int
	Explanation string
	// IsMax is the stored full-marks flag; nil when the row does not carry one.
	IsMax *bool
}

func flag(r Record, key string) *bool {
	if v, ok := r.Bool(key); ok {
		return &v
	}
	return nil
}

// Totals is a stored section or global rollup.
type Totals struct {
	Points     int
	Maximum    int
	Categories int
}

// Present reports whether the row carried any rollup for this section.
func (t Totals) Present() bool {
	return t.Points != 0 || t.Maximum != 0 || t.Categories != 0
}

// GetCriterion reads sub-criterion index (1-based) of section. The index must be within
// the section's declared category count.
func GetCriterion(r Record, section string, index int) (Criterion, error) {
	n := r.Int(TotalKey(section, TotalCategories))
	if index < 1 || index > n {
		return Criterion{}, fmt.Errorf("%s criterion %d of %d: %w", section, index, n, ErrCriterionOutOfRange)
	}
	return Criterion{
		Section:     section,
		Index:       index,
		Title:       r.Text(CriterionKey(section, index, FieldTitle)),
		Points:      r.Int(CriterionKey(section, index, FieldPoints)),
		Maximum:     r.Int(CriterionKey(section, index, FieldMaximum)),
		Explanation: r.Text(CriterionKey(section, index, FieldExplanation)),
		IsMax:       flag(r, CriterionKey(section, index, FieldIsMax)),
	}, nil
}

// NamedCriterion reads the criterion stored under the key prefix. ok is false when the
// row has none of its columns.
func NamedCriterion(r Record, key string) (Criterion, bool) {
	present := false
	for _, f := range []string{NamedDescription, NamedAwarded, NamedMaximum, NamedFeedback} {
		if r.Has(NamedKey(key, f)) {
			present = true
			break
		}
	}
	if !present {
		return Criterion{}, false
	}
	return Criterion{
		Description: r.Text(NamedKey(key, NamedDescription)),
		Points:      r.Int(NamedKey(key, NamedAwarded)),
		Maximum:     r.Int(NamedKey(key, NamedMaximum)),
		Explanation: r.Text(NamedKey(key, NamedFeedback)),
		IsMax:       flag(r, NamedKey(key, NamedIsMax)),
	}, true
}

// TotalsAt reads a rollup stored under explicit column names.
func TotalsAt(r Record, pointsKey, maximumKey string) Totals {
	return Totals{Points: r.Int(pointsKey), Maximum: r.Int(maximumKey)}
}

// Criteria reads every declared sub-criterion of section in stored order.
func Criteria(r Record, section string) []Criterion {
	n := r.Int(TotalKey(section, TotalCategories))
	out := make([]Criterion, 0, max(n, 0))
	for i := 1; i <= n; i++ {
		c, err := GetCriterion(r, section, i)
		if err != nil {
			break
		}
		out = append(out, c)
	}
	return out
}

// SectionTotals reads {section}_total_points, _maximum and _categories.
func SectionTotals(r Record, section string) Totals {
	return Totals{
		Points:     r.Int(TotalKey(section, TotalPoints)),
		Maximum:    r.Int(TotalKey(section, TotalMaximum)),
		Categories: r.Int(TotalKey(section, TotalCategories)),
	}
}

// GlobalTotals reads global_total_points and global_total_maximum, falling back to the
// grand_total columns of CV rows.
func GlobalTotals(r Record) Totals {
	points, maximum := TotalKey(GlobalSection, TotalPoints), TotalKey(GlobalSection, TotalMaximum)
	if !r.Has(points) && !r.Has(maximum) {
		return TotalsAt(r, GrandTotalAwarded, GrandTotalMaximum)
	}
	return TotalsAt(r, points, maximum)
}

// Profile is the identity block written next to the scores.
type Profile struct {
	LinkedInURL string     `json:"linkedin_url,omitempty"`
	FirstName   string     `json:"first_name,omitempty"`
	LastName    string     `json:"last_name,omitempty"`
	Position    string     `json:"position,omitempty"`
	PhotoURL    string     `json:"photo_url,omitempty"`
	CoverURL    string     `json:"cover_url,omitempty"`
	AnalyzedAt  *time.Time `json:"analyzed_at,omitempty"`
}

// FullName joins first and last name.
func (p Profile) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999-07", "2006-01-02 15:04:05", "2006-01-02"}

// GetProfile reads the identity columns, or the candidate_ columns of a CV row. An
// unparseable analyzed_at is left nil.
func GetProfile(r Record) Profile {
	p := Profile{
		LinkedInURL: firstText(r, "linkedin_url", "candidate_profile_url"),
		FirstName:   firstText(r, "first_name", "candidate_first_name"),
		LastName:    firstText(r, "last_name", "candidate_last_name"),
		Position:    r.Text("position"),
		PhotoURL:    r.Text("photo_url"),
		CoverURL:    r.Text("cover_url"),
	}
	if raw := r.Text("analyzed_at"); raw != "" {
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, raw); err == nil {
				ts = ts.UTC()
				p.AnalyzedAt = &ts
				break
			}
		}
	}
	return p
}

func firstText(r Record, keys ...string) string {
	for _, k := range keys {
		if v := r.Text(k); v != "" {
			return v
		}
	}
	return ""
}
