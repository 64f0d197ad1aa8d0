package scoring

import (
	"fmt"
	"slices"
)

// Mode selects how criteria are ordered for display.
type Mode int

const (
	// Sorted orders by descending ratio; ties keep their input order.
	Sorted Mode = iota
	// PreserveOrder keeps the caller's hand-authored order.
	PreserveOrder
)

func (m Mode) String() string {
	switch m {
	case Sorted:
		return "sorted"
	case PreserveOrder:
		return "preserve_order"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Aggregate returns the criteria in display order. The input slice is never reordered.
func Aggregate(criteria []Criterion, mode Mode) []Criterion {
	if criteria == nil {
		return nil
	}
	out := make([]Criterion, len(criteria))
	for i, j := range Order(criteria, mode) {
		out[i] = criteria[j]
	}
	return out
}

// Order is the permutation behind Aggregate: position i of the display shows
// criteria[Order(...)[i]]. Callers use it to carry their own per-row data through the
// reorder.
func Order(criteria []Criterion, mode Mode) []int {
	idx := make([]int, len(criteria))
	for i := range idx {
		idx[i] = i
	}
	if mode == PreserveOrder {
		return idx
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return compareDesc(Ratio(criteria[a]), Ratio(criteria[b]))
	})
	return idx
}

// SortSections orders section rollups like Aggregate orders criteria.
func SortSections(sections []Section, mode Mode) []Section {
	out := slices.Clone(sections)
	if mode == PreserveOrder {
		return out
	}
	slices.SortStableFunc(out, func(a, b Section) int {
		return compareDesc(a.Ratio(), b.Ratio())
	})
	return out
}

// ComputeTotals sums awarded and maximum points over criteria.
func ComputeTotals(criteria []Criterion) (score, max int) {
	for _, c := range criteria {
		score += c.Score
		max += c.MaxScore
	}
	return score, max
}

func compareDesc(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}
