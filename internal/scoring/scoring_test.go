package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(cs []Criterion) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

func blurredNames(cs []Criterion) []string {
	var out []string
	for _, c := range cs {
		if c.ShouldBlur {
			out = append(out, c.Name)
		}
	}
	return out
}

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		c    Criterion
		want float64
	}{
		{"regular", Criterion{Score: 3, MaxScore: 4}, 0.75},
		{"zero max", Criterion{Score: 3, MaxScore: 0}, 0},
		{"negative max", Criterion{Score: 3, MaxScore: -2}, 0},
		{"over max", Criterion{Score: 6, MaxScore: 4}, 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Ratio(tt.c), 1e-9)
		})
	}
}

func TestAggregate_StableOnTies(t *testing.T) {
	in := []Criterion{
		{Name: "a", Score: 1, MaxScore: 2},
		{Name: "b", Score: 5, MaxScore: 5},
		{Name: "c", Score: 2, MaxScore: 4},
		{Name: "d", Score: 3, MaxScore: 6},
		{Name: "e", Score: 10, MaxScore: 10},
	}
	got := Aggregate(in, Sorted)
	assert.Equal(t, []string{"b", "e", "a", "c", "d"}, names(got))
}

func TestAggregate_ZeroMaxSortsLast(t *testing.T) {
	in := []Criterion{
		{Name: "broken", Score: 4, MaxScore: 0},
		{Name: "weak", Score: 1, MaxScore: 10},
		{Name: "strong", Score: 9, MaxScore: 10},
	}
	got := Aggregate(in, Sorted)
	assert.Equal(t, []string{"strong", "weak", "broken"}, names(got))
}

func TestAggregate_DoesNotMutateInput(t *testing.T) {
	in := []Criterion{
		{Name: "low", Score: 1, MaxScore: 10},
		{Name: "high", Score: 9, MaxScore: 10},
	}
	_ = Aggregate(in, Sorted)
	_ = Annotate(in, 1)
	assert.Equal(t, []string{"low", "high"}, names(in))
	assert.False(t, in[1].ShouldBlur)
}

func TestAggregate_PreserveOrder(t *testing.T) {
	in := []Criterion{
		{Name: "x", Score: 0, MaxScore: 5},
		{Name: "y", Score: 5, MaxScore: 5},
	}
	got := Aggregate(in, PreserveOrder)
	assert.Equal(t, []string{"x", "y"}, names(got))
	got[0].Name = "changed"
	assert.Equal(t, "x", in[0].Name)
}

func TestComputeTotals(t *testing.T) {
	s, m := ComputeTotals(nil)
	assert.Equal(t, 0, s)
	assert.Equal(t, 0, m)

	s, m = ComputeTotals([]Criterion{{Score: 4, MaxScore: 7}})
	assert.Equal(t, 4, s)
	assert.Equal(t, 7, m)

	s, m = ComputeTotals([]Criterion{{Score: 4, MaxScore: 7}, {Score: 1, MaxScore: 3}})
	assert.Equal(t, 5, s)
	assert.Equal(t, 10, m)
}

func TestOrder(t *testing.T) {
	in := []Criterion{
		{Name: "same", Score: 1, MaxScore: 10},
		{Name: "same", Score: 9, MaxScore: 10},
		{Name: "x", Score: 5, MaxScore: 10},
	}
	assert.Equal(t, []int{1, 2, 0}, Order(in, Sorted))
	assert.Equal(t, []int{0, 1, 2}, Order(in, PreserveOrder))
	assert.Empty(t, Order(nil, Sorted))
	assert.Nil(t, Aggregate(nil, Sorted))
}

func TestSection_SuppliedTotalsAreKept(t *testing.T) {
	sec := Section{
		Title:      "Sélection",
		Criteria:   []Criterion{{Score: 3, MaxScore: 5}, {Score: 1, MaxScore: 5}, {Score: 1, MaxScore: 5}},
		TotalScore: 7,
		TotalMax:   20,
	}
	assert.Equal(t, 7, sec.TotalScore)
	assert.InDelta(t, 35.0, sec.Percent(), 1e-9)

	summed := sec.SelfSum()
	assert.Equal(t, 5, summed.TotalScore)
	assert.Equal(t, 15, summed.TotalMax)
	assert.Equal(t, 7, sec.TotalScore, "SelfSum returns a copy")
}

func TestBlurSequencing(t *testing.T) {
	in := []Criterion{
		{Name: "A", Score: 9, MaxScore: 10},
		{Name: "B", Score: 1, MaxScore: 10},
		{Name: "C", Score: 5, MaxScore: 10},
	}

	sorted := Annotate(Aggregate(in, Sorted), 1)
	assert.Equal(t, []string{"A", "C", "B"}, names(sorted))
	assert.Equal(t, []string{"B"}, blurredNames(sorted))

	preserved := Annotate(Aggregate(in, PreserveOrder), 1)
	assert.Equal(t, []string{"C"}, blurredNames(preserved))
}

func TestAnnotate_PermanentOverrideWins(t *testing.T) {
	in := []Criterion{
		{Name: "kept", Score: 10, MaxScore: 10, ShouldBlur: true},
		{Name: "open", Score: 1, MaxScore: 10},
	}
	got := Annotate(in, 0)
	assert.Equal(t, []string{"kept"}, blurredNames(got))

	got = Annotate(in, -3)
	assert.Equal(t, []string{"kept"}, blurredNames(got))
}

func TestAnnotate_BlurMoreThanLength(t *testing.T) {
	in := []Criterion{{Name: "a"}, {Name: "b"}}
	got := Annotate(in, 5)
	assert.Equal(t, []string{"a", "b"}, blurredNames(got))
}

func TestDisclose(t *testing.T) {
	in := []Criterion{
		{Name: "a", Score: 5, MaxScore: 5},
		{Name: "b", Score: 4, MaxScore: 5},
		{Name: "c", Score: 3, MaxScore: 5},
		{Name: "d", Score: 2, MaxScore: 5},
	}
	d := Disclose(in, 2)
	require.True(t, d.HasHidden)
	assert.Equal(t, []int{2, 3}, d.BlurredIndices)
	// mean 2.5 -> (3/4)*100*0.85
	assert.InDelta(t, 63.75, d.CTAPosition, 1e-9)

	open := Disclose(in, 0)
	assert.False(t, open.HasHidden)
	assert.Empty(t, open.BlurredIndices)
	assert.Zero(t, open.CTAPosition)
}

func TestCTAPosition(t *testing.T) {
	assert.Zero(t, CTAPosition(nil, 4))
	assert.Zero(t, CTAPosition([]int{0}, 0))
	assert.InDelta(t, (0.5/3)*100*CTACorrection, CTAPosition([]int{0}, 3), 1e-9)
	assert.InDelta(t, (2.5/3)*100*CTACorrection, CTAPosition([]int{2}, 3), 1e-9)
}

func TestDisplayFeedback(t *testing.T) {
	fb, ok := DisplayFeedback(Criterion{Feedback: "Ajoutez une bannière", IsMaxScore: true})
	assert.True(t, ok)
	assert.Equal(t, PerfectFeedback, fb)

	fb, ok = DisplayFeedback(Criterion{Feedback: "Ajoutez une bannière"})
	assert.True(t, ok)
	assert.Equal(t, "Ajoutez une bannière", fb)

	_, ok = DisplayFeedback(Criterion{Feedback: "secret", ShouldBlur: true, IsMaxScore: true})
	assert.False(t, ok)

	_, ok = DisplayFeedback(Criterion{})
	assert.False(t, ok)
}

func TestComputeGlobal_OverrideArithmetic(t *testing.T) {
	sections := []Section{
		{Title: "Bannière", TotalScore: 17, TotalMax: 20},
		{Title: "Sélection", TotalScore: 3, TotalMax: 5},
	}
	stored := ComputeGlobal(sections, nil)
	require.Equal(t, GlobalScore{Score: 20, MaxScore: 25}, stored)

	// raw 3/5 becomes 3 + 1 + 1 out of 15
	ov := []Override{{Reason: "selection placeholders", Original: 3, Replacement: 5, OriginalMax: 5, ReplacementMax: 15}}
	got := ApplyOverrides(stored, ov)
	assert.Equal(t, stored.Score-3+5, got.Score)
	assert.Equal(t, stored.MaxScore-5+15, got.MaxScore)

	assert.Equal(t, got, ComputeGlobal(sections, ov))
}

func TestComputeGlobal_ForcedValue(t *testing.T) {
	base := GlobalScore{Score: 40, MaxScore: 70}
	got := ApplyOverrides(base, []Override{
		{Reason: "forced", Original: 3, Replacement: 7, OriginalMax: 5, ReplacementMax: 5},
	})
	assert.Equal(t, GlobalScore{Score: 44, MaxScore: 70}, got)
}

func TestGlobalScore_Percent(t *testing.T) {
	assert.Zero(t, GlobalScore{Score: 10}.Percent())
	assert.Zero(t, GlobalScore{Score: 10}.Fraction())
	assert.InDelta(t, 120.0, GlobalScore{Score: 12, MaxScore: 10}.Percent(), 1e-9)
	assert.Equal(t, 1.0, GlobalScore{Score: 12, MaxScore: 10}.Fraction())
	assert.Equal(t, 0.0, GlobalScore{Score: -1, MaxScore: 10}.Fraction())
}

func TestEndToEnd_SectionSummary(t *testing.T) {
	sections := []Section{
		{Key: "photo", Title: "Photo", TotalScore: 12, TotalMax: 15},
		{Key: "banner", Title: "Banner", TotalScore: 17, TotalMax: 20},
		{Key: "headline", Title: "Headline", TotalScore: 14, TotalMax: 20},
		{Key: "about", Title: "About", TotalScore: 11, TotalMax: 15},
	}
	got := SortSections(sections, Sorted)
	var order []string
	for _, s := range got {
		order = append(order, s.Title)
	}
	assert.Equal(t, []string{"Banner", "Photo", "About", "Headline"}, order)
	assert.Equal(t, "Photo", sections[0].Title)

	assert.Equal(t, GlobalScore{Score: 54, MaxScore: 70}, ComputeGlobal(sections, nil))
}

func TestToneFor(t *testing.T) {
	assert.Equal(t, ToneLow, ToneFor(0))
	assert.Equal(t, ToneLow, ToneFor(29.9))
	assert.Equal(t, ToneMedium, ToneFor(30))
	assert.Equal(t, ToneMedium, ToneFor(74.9))
	assert.Equal(t, ToneHigh, ToneFor(75))
	assert.Equal(t, ToneHigh, ToneFor(130))
}

func TestBarColor(t *testing.T) {
	assert.Equal(t, LowColor, BarColor(-5))
	assert.Equal(t, LowColor, BarColor(30))
	assert.Equal(t, "hsl(60, 91%, 50%)", BarColor(75))
	assert.Equal(t, "hsl(30, 91%, 50%)", BarColor(52.5))
	assert.Equal(t, "hsl(120, 91%, 50%)", BarColor(100))
	assert.Equal(t, "hsl(120, 91%, 50%)", BarColor(150))
	assert.Equal(t, "hsl(90, 91%, 50%)", BarColor(87.5))
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "sorted", Sorted.String())
	assert.Equal(t, "preserve_order", PreserveOrder.String())
	assert.Equal(t, "Mode(9)", Mode(9).String())
}
