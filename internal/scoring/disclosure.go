package scoring

// CTACorrection scales the raw centroid of blurred rows to account for table padding.
const CTACorrection = 0.85

// Disclosure is the blur resolution of one ordered section.
type Disclosure struct {
	Criteria       []Criterion `json:"criteria"`
	BlurredIndices []int       `json:"blurred_indices,omitempty"`
	HasHidden      bool        `json:"has_hidden"`
	// CTAPosition is the vertical offset, in percent of the table height, where the
	// unlock call-to-action is centred. Zero when nothing is hidden.
	CTAPosition float64 `json:"cta_position"`
}

// Annotate resolves ShouldBlur for each already-ordered criterion:
// a permanent ShouldBlur stays, otherwise the last blurLastN positions are blurred.
// Position is taken on the ordered list, so under Sorted mode the worst performers
// are hidden and under PreserveOrder the last-authored ones are.
func Annotate(ordered []Criterion, blurLastN int) []Criterion {
	if blurLastN < 0 {
		blurLastN = 0
	}
	out := make([]Criterion, len(ordered))
	cut := len(ordered) - blurLastN
	for i, c := range ordered {
		if !c.ShouldBlur && blurLastN > 0 && i >= cut {
			c.ShouldBlur = true
		}
		out[i] = c
	}
	return out
}

// Disclose annotates ordered and computes where the unlock affordance sits.
func Disclose(ordered []Criterion, blurLastN int) Disclosure {
	annotated := Annotate(ordered, blurLastN)
	var blurred []int
	for i, c := range annotated {
		if c.ShouldBlur {
			blurred = append(blurred, i)
		}
	}
	return Disclosure{
		Criteria:       annotated,
		BlurredIndices: blurred,
		HasHidden:      len(blurred) > 0,
		CTAPosition:    CTAPosition(blurred, len(annotated)),
	}
}

// CTAPosition returns ((mean(blurred)+0.5)/total)*100*CTACorrection, or 0 when there is
// nothing to centre on.
func CTAPosition(blurred []int, total int) float64 {
	if len(blurred) == 0 || total <= 0 {
		return 0
	}
	sum := 0
	for _, i := range blurred {
		sum += i
	}
	mean := float64(sum) / float64(len(blurred))
	return (mean + 0.5) / float64(total) * 100 * CTACorrection
}
