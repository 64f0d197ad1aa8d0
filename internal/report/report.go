// Package report turns a stored result row into the results page model: ordered and
// blur-annotated detail sections, the sorted summary table, the headline score and the
// reveal schedule.
package report

import (
	"fmt"

	"github.com/mimprep/profile-audit/internal/record"
	"github.com/mimprep/profile-audit/internal/reveal"
	"github.com/mimprep/profile-audit/internal/rubric"
	"github.com/mimprep/profile-audit/internal/scoring"
)

// Score is a total with its derived display values.
type Score struct {
	Score   int          `json:"score"`
	Max     int          `json:"max"`
	Percent float64      `json:"percent"`
	Tone    scoring.Tone `json:"tone"`
	Color   string       `json:"color"`
}

func newScore(score, maximum int) Score {
	g := scoring.GlobalScore{Score: score, MaxScore: maximum}
	pct := g.Percent()
	return Score{
		Score:   score,
		Max:     maximum,
		Percent: pct,
		Tone:    scoring.ToneFor(pct),
		Color:   scoring.BarColor(pct),
	}
}

// Row is one criterion as displayed.
type Row struct {
	scoring.Criterion
	Synthetic bool   `json:"synthetic,omitempty"`
	Display   string `json:"display_feedback,omitempty"`
}

// Section is one detail table.
type Section struct {
	Key         string  `json:"key"`
	Title       string  `json:"title"`
	ImageURL    string  `json:"image_url,omitempty"`
	Total       Score   `json:"total"`
	Rows        []Row   `json:"rows"`
	Blurred     []int   `json:"blurred_indices,omitempty"`
	HasHidden   bool    `json:"has_hidden"`
	CTAPosition float64 `json:"cta_position"`
}

// SummaryRow is one line of the section scores table.
type SummaryRow struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Score
}

// Report is everything the results page renders.
type Report struct {
	Code      string             `json:"code"`
	Kind      string             `json:"kind,omitempty"`
	Profile   record.Profile     `json:"profile"`
	Candidate *record.Candidate  `json:"candidate,omitempty"`
	Global    Score              `json:"global"`
	Summary   []SummaryRow       `json:"summary"`
	Sections  []Section          `json:"sections"`
	Bonus     *record.Bonus      `json:"bonus,omitempty"`
	Overrides []scoring.Override `json:"overrides,omitempty"`
	HasHidden bool               `json:"has_hidden"`
	Reveal    reveal.Timeline    `json:"reveal"`
}

// Build assembles the report for code. It never fails: a nil record or catalog yields
// an empty report, and missing fields read as zero.
func Build(code string, r record.Record, cat *rubric.Catalog) Report {
	rep := Report{Code: code, Profile: record.GetProfile(r)}
	if c, ok := record.GetCandidate(r); ok {
		rep.Candidate = &c
	}
	if b, ok := record.GetBonus(r); ok {
		rep.Bonus = &b
	}

	var (
		totals    []scoring.Section
		overrides []scoring.Override
	)
	if cat != nil {
		rep.Kind = cat.Kind
		for _, def := range cat.Sections {
			sec, ov, ok := buildSection(r, def, cat, rep.Profile)
			if !ok {
				continue
			}
			rep.Sections = append(rep.Sections, sec)
			overrides = append(overrides, ov...)
			totals = append(totals, scoring.Section{
				Key:        sec.Key,
				Title:      sec.Title,
				TotalScore: sec.Total.Score,
				TotalMax:   sec.Total.Max,
			})
			rep.HasHidden = rep.HasHidden || sec.HasHidden
		}
	}

	var global scoring.GlobalScore
	if stored := globalTotals(r, cat); stored.Present() {
		global = scoring.ApplyOverrides(scoring.GlobalScore{Score: stored.Points, MaxScore: stored.Maximum}, overrides)
	} else {
		// section totals already carry the overrides
		global = scoring.ComputeGlobal(totals, nil)
	}
	rep.Global = newScore(global.Score, global.MaxScore)
	rep.Overrides = overrides

	for _, s := range scoring.SortSections(totals, scoring.Sorted) {
		rep.Summary = append(rep.Summary, SummaryRow{Key: s.Key, Title: s.Title, Score: newScore(s.TotalScore, s.TotalMax)})
	}
	rep.Reveal = reveal.Plan(len(rep.Summary))
	return rep
}

func globalTotals(r record.Record, cat *rubric.Catalog) record.Totals {
	if cat != nil && cat.Global != nil {
		return record.TotalsAt(r, cat.Global.Points, cat.Global.Maximum)
	}
	return record.GlobalTotals(r)
}

func storedTotals(r record.Record, def rubric.SectionDef) record.Totals {
	if def.Totals != nil {
		return record.TotalsAt(r, def.Totals.Points, def.Totals.Maximum)
	}
	return record.SectionTotals(r, def.Key)
}

// storedCriteria reads the section's criteria in rubric order. Keyed criteria absent
// from the row are skipped.
func storedCriteria(r record.Record, def rubric.SectionDef) []record.Criterion {
	if !def.Named() {
		return record.Criteria(r, def.Key)
	}
	var out []record.Criterion
	for i, cd := range def.Criteria {
		c, ok := record.NamedCriterion(r, cd.Key)
		if !ok {
			continue
		}
		c.Section, c.Index, c.Title = def.Key, i+1, cd.Title
		out = append(out, c)
	}
	return out
}

func buildSection(r record.Record, def rubric.SectionDef, cat *rubric.Catalog, p record.Profile) (Section, []scoring.Override, bool) {
	stored := storedTotals(r, def)
	criteria := storedCriteria(r, def)
	if !stored.Present() && len(criteria) == 0 {
		return Section{}, nil, false
	}

	var (
		rows   []Row
		forced []scoring.Override
	)
	for _, c := range criteria {
		if !def.Includes(c.Index) {
			continue
		}
		title := c.Title
		if title == "" {
			title = def.CriterionTitle(c.Index)
		}
		crit := scoring.Criterion{
			Name:        rubric.CleanTitle(title),
			Description: title,
			Score:       c.Points,
			MaxScore:    c.Maximum,
			Feedback:    c.Explanation,
			Expectation: cat.Expectation(def.Key, title),
			ShouldBlur:  def.AlwaysBlurred(c.Index),
		}
		if c.Description != "" {
			crit.Description = c.Description
			if crit.Expectation == rubric.UndefinedExpectation {
				crit.Expectation = c.Description
			}
		}
		crit.IsMaxScore = crit.MaxScore > 0 && crit.Score >= crit.MaxScore
		if c.IsMax != nil {
			crit.IsMaxScore = *c.IsMax
		}
		if v, ok := def.Forced[c.Index]; ok {
			forced = append(forced, scoring.Override{
				Reason:         fmt.Sprintf("%s criterion %d forced to %d", def.Key, c.Index, v),
				Original:       c.Points,
				Replacement:    v,
				OriginalMax:    c.Maximum,
				ReplacementMax: c.Maximum,
			})
			crit.Score = v
			crit.IsMaxScore = crit.MaxScore > 0 && v >= crit.MaxScore
		}
		rows = append(rows, Row{Criterion: crit})
	}
	for _, ph := range def.Placeholders {
		rows = append(rows, Row{
			Criterion: scoring.Criterion{
				Name:        ph.Name,
				Description: ph.Name,
				Score:       ph.Score,
				MaxScore:    ph.Max,
				Expectation: cat.Expectation(def.Key, ph.Name),
				ShouldBlur:  ph.Blur,
			},
			Synthetic: true,
		})
	}

	score, maximum, overrides := sectionTotals(def, stored, rows, forced)

	mode := scoring.Sorted
	if def.PreserveOrder {
		mode = scoring.PreserveOrder
	}
	ordered := make([]Row, len(rows))
	for i, j := range scoring.Order(criteriaOf(rows), mode) {
		ordered[i] = rows[j]
	}
	disc := scoring.Disclose(criteriaOf(ordered), def.BlurLastN)

	out := make([]Row, len(disc.Criteria))
	for i, c := range disc.Criteria {
		out[i] = Row{Criterion: c, Synthetic: ordered[i].Synthetic}
		if fb, ok := scoring.DisplayFeedback(c); ok {
			out[i].Display = fb
		}
	}

	return Section{
		Key:         def.Key,
		Title:       def.Title,
		ImageURL:    imageURL(r, def.ImageField, p),
		Total:       newScore(score, maximum),
		Rows:        out,
		Blurred:     disc.BlurredIndices,
		HasHidden:   disc.HasHidden,
		CTAPosition: disc.CTAPosition,
	}, overrides, true
}

// sectionTotals decides the displayed rollup of a section and the overrides that keep
// the stored global total consistent with it.
//
//   - no stored rollup: totals come from the displayed rows; no override.
//   - self_sum, or reshaped (include subset, placeholders, fixed max): totals come from
//     the displayed rows and one override replaces the stored rollup.
//   - otherwise: the stored rollup is kept and each forced criterion adjusts it.
func sectionTotals(def rubric.SectionDef, stored record.Totals, rows []Row, forced []scoring.Override) (int, int, []scoring.Override) {
	shown := scoring.Section{Key: def.Key, Title: def.Title, Criteria: criteriaOf(rows)}
	if stored.Points == 0 && stored.Maximum == 0 {
		sum := shown.SelfSum()
		return sum.TotalScore, sum.TotalMax, nil
	}
	reshaped := len(def.Include) > 0 || len(def.Placeholders) > 0 || def.TotalMax > 0
	if def.SelfSum || reshaped {
		sum := shown.SelfSum()
		s, m := sum.TotalScore, sum.TotalMax
		if def.TotalMax > 0 {
			m = def.TotalMax
		}
		if s == stored.Points && m == stored.Maximum {
			return s, m, nil
		}
		return s, m, []scoring.Override{{
			Reason:         def.Key + " section reshaped",
			Original:       stored.Points,
			Replacement:    s,
			OriginalMax:    stored.Maximum,
			ReplacementMax: m,
		}}
	}
	g := scoring.ApplyOverrides(scoring.GlobalScore{Score: stored.Points, MaxScore: stored.Maximum}, forced)
	return g.Score, g.MaxScore, forced
}

func criteriaOf(rows []Row) []scoring.Criterion {
	out := make([]scoring.Criterion, len(rows))
	for i, r := range rows {
		out[i] = r.Criterion
	}
	return out
}

func imageURL(r record.Record, field string, p record.Profile) string {
	switch field {
	case "":
		return ""
	case "photo_url":
		return p.PhotoURL
	case "cover_url":
		return p.CoverURL
	default:
		return r.Text(field)
	}
}

// Targets returns what the reveal sequencer animates: the headline score and the
// summary rows in display order.
func (rep Report) Targets() (reveal.Target, []reveal.Target) {
	global := reveal.Target{Value: rep.Global.Score, Fraction: rep.Global.Percent / 100}
	rows := make([]reveal.Target, len(rep.Summary))
	for i, s := range rep.Summary {
		rows[i] = reveal.Target{Value: int(s.Percent + 0.5), Fraction: s.Percent / 100}
	}
	return global, rows
}

// Sequencer returns a fresh reveal sequencer for this report.
func (rep Report) Sequencer(opts ...reveal.Option) *reveal.Sequencer {
	g, rows := rep.Targets()
	return reveal.NewSequencer(g, rows, opts...)
}
