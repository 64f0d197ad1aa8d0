package scoring

// Override replaces one stored contribution to the global total with the value the
// breakdown actually displays (forced sub-criteria, synthetic placeholders).
type Override struct {
	Reason         string `json:"reason"`
	Original       int    `json:"original"`
	Replacement    int    `json:"replacement"`
	OriginalMax    int    `json:"original_max"`
	ReplacementMax int    `json:"replacement_max"`
}

// Delta is the signed change the override applies to the awarded total.
func (o Override) Delta() int { return o.Replacement - o.Original }

// MaxDelta is the signed change the override applies to the maximum.
func (o Override) MaxDelta() int { return o.ReplacementMax - o.OriginalMax }

// GlobalScore is the headline total.
type GlobalScore struct {
	Score    int `json:"score"`
	MaxScore int `json:"max_score"`
}

// Percent is Score/MaxScore*100, 0 when MaxScore is not positive. It is not clamped:
// records with score > max display above 100.
func (g GlobalScore) Percent() float64 {
	return ratio(g.Score, g.MaxScore) * 100
}

// Fraction is the bar fill in [0,1].
func (g GlobalScore) Fraction() float64 {
	return clamp01(ratio(g.Score, g.MaxScore))
}

// ComputeGlobal sums the caller-supplied section totals and then applies each override
// to the running total.
func ComputeGlobal(sections []Section, overrides []Override) GlobalScore {
	var base GlobalScore
	for _, s := range sections {
		base.Score += s.TotalScore
		base.MaxScore += s.TotalMax
	}
	return ApplyOverrides(base, overrides)
}

// ApplyOverrides adjusts an already known total, typically the one stored alongside the
// record, so that it agrees with the displayed breakdown.
func ApplyOverrides(base GlobalScore, overrides []Override) GlobalScore {
	for _, o := range overrides {
		base.Score += o.Delta()
		base.MaxScore += o.MaxDelta()
	}
	return base
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
