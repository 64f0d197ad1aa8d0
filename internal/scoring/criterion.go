// Package scoring turns per-criterion rubric scores into ordered, disclosure-annotated
// sections and a headline total.
//
// Nothing in this package returns an error or panics on malformed numbers: zero or
// negative maxima yield a zero ratio, missing optional fields are zero values, and
// score > max is accepted as-is.
package scoring

// PerfectFeedback replaces the feedback text of a criterion flagged IsMaxScore.
const PerfectFeedback = "Parfait :)"

// Criterion is one scored rubric line.
type Criterion struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"` // raw rubric title
	Score       int    `json:"score"`
	MaxScore    int    `json:"max_score"`
	Feedback    string `json:"feedback,omitempty"`
	Expectation string `json:"expectation,omitempty"`
	IsMaxScore  bool   `json:"is_max_score,omitempty"`
	ShouldBlur  bool   `json:"should_blur,omitempty"` // permanent override, independent of position
}

// Ratio is Score/MaxScore, or 0 when MaxScore is not positive.
func Ratio(c Criterion) float64 {
	return ratio(c.Score, c.MaxScore)
}

func ratio(score, max int) float64 {
	if max <= 0 {
		return 0
	}
	return float64(score) / float64(max)
}

// DisplayFeedback returns the feedback line to show for c and whether there is one.
// Blurred criteria never show feedback.
func DisplayFeedback(c Criterion) (string, bool) {
	if c.ShouldBlur {
		return "", false
	}
	if c.IsMaxScore {
		return PerfectFeedback, true
	}
	if c.Feedback == "" {
		return "", false
	}
	return c.Feedback, true
}

// Section is a named group of criteria with a rollup total.
//
// TotalScore and TotalMax are supplied by the caller and may diverge from the sum of
// Criteria (synthetic criteria, forced points). They are never recomputed implicitly;
// call SelfSum when the section should be totalled from its own criteria.
type Section struct {
	Key        string      `json:"key"`
	Title      string      `json:"title"`
	Criteria   []Criterion `json:"criteria,omitempty"`
	TotalScore int         `json:"total_score"`
	TotalMax   int         `json:"total_max"`
}

// SelfSum returns a copy of s whose totals are the sum of its criteria.
func (s Section) SelfSum() Section {
	s.TotalScore, s.TotalMax = ComputeTotals(s.Criteria)
	return s
}

// Ratio is TotalScore/TotalMax, or 0 when TotalMax is not positive.
func (s Section) Ratio() float64 {
	return ratio(s.TotalScore, s.TotalMax)
}

// Percent is the section ratio expressed in percent.
func (s Section) Percent() float64 {
	return s.Ratio() * 100
}
