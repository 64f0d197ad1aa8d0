package scoring

import (
	"fmt"
	"math"
)

// Tone buckets a percentage for badge styling.
type Tone string

const (
	ToneLow    Tone = "low"
	ToneMedium Tone = "medium"
	ToneHigh   Tone = "high"
)

const (
	lowThreshold  = 30.0
	highThreshold = 75.0

	// LowColor is the flat fill used up to the low threshold.
	LowColor = "#F04438"
)

// ToneFor maps a percentage to its badge tone.
func ToneFor(percent float64) Tone {
	switch {
	case percent < lowThreshold:
		return ToneLow
	case percent < highThreshold:
		return ToneMedium
	default:
		return ToneHigh
	}
}

// BarColor returns the CSS fill of a score bar at the given percentage: flat red up to
// 30, a red to yellow hue ramp up to 75, then yellow to green.
func BarColor(percent float64) string {
	p := math.Max(0, math.Min(percent, 100))
	switch {
	case p <= lowThreshold:
		return LowColor
	case p <= highThreshold:
		return hsl(60 * (p - lowThreshold) / (highThreshold - lowThreshold))
	default:
		return hsl(60 + 60*(p-highThreshold)/(100-highThreshold))
	}
}

func hsl(hue float64) string {
	return fmt.Sprintf("hsl(%s, 91%%, 50%%)", trimFloat(hue))
}

func trimFloat(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int(v))
	}
	return fmt.Sprintf("%.2f", v)
}
