// Package record reads the flat result row written by the analysis automation.
//
// A row is a single JSON object whose keys follow a naming scheme:
//
//	{section}_critere_{i}_titre | _points_obtenus | _points_maximum | _explication
//	{section}_total_points | _total_maximum | _total_categories
//	global_total_points | global_total_maximum
//
// CV rows name each criterion instead of numbering it, and carry their own rollups:
//
//	{criterion}_desc | _points_awarded | _points_max | _feedback
//	{section}_awarded_sum | {section}_max_sum
//	grand_total_awarded | grand_total_max
//
// Values come from an AI pipeline and are coerced defensively: a missing, null or
// non-numeric value reads as zero or the empty string.
package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrCriterionOutOfRange is returned when a criterion index is outside
// 1..{section}_total_categories.
var ErrCriterionOutOfRange = errors.New("criterion index out of range")

// Record is one flat result row. A nil Record is valid and empty.
type Record map[string]any

// Decode parses a JSON object into a Record, keeping numbers exact.
func Decode(data []byte) (Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var r Record
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return r, nil
}

// Has reports whether key is present with a non-null value.
func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// Int reads key as an integer. Fractional values are rounded half up.
func (r Record) Int(key string) int {
	f, ok := toFloat(r[key])
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(math.Floor(f + 0.5))
}

// Text reads key as a trimmed string. Numbers are formatted, other types read as "".
func (r Record) Text(key string) string {
	switch v := r[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

// Bool reads key as a flag. ok is false when the key is absent or holds nothing that
// reads as a boolean.
func (r Record) Bool(key string) (value, ok bool) {
	switch v := r[key].(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return b, err == nil
	default:
		f, isNum := toFloat(v)
		if !isNum {
			return false, false
		}
		return f != 0, true
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Key builders.

func CriterionKey(section string, i int, field string) string {
	return fmt.Sprintf("%s_critere_%d_%s", section, i, field)
}

func TotalKey(section, field string) string {
	return section + "_total_" + field
}

// NamedKey is the column of a criterion stored under its own prefix, as in CV rows.
func NamedKey(criterion, field string) string {
	return criterion + "_" + field
}

const (
	FieldTitle       = "titre"
	FieldPoints      = "points_obtenus"
	FieldMaximum     = "points_maximum"
	FieldExplanation = "explication"
	FieldIsMax       = "is_max_score"

	TotalPoints     = "points"
	TotalMaximum    = "maximum"
	TotalCategories = "categories"

	GlobalSection = "global"

	NamedDescription = "desc"
	NamedAwarded     = "points_awarded"
	NamedMaximum     = "points_max"
	NamedFeedback    = "feedback"
	NamedIsMax       = "is_max_score"

	GrandTotalAwarded = "grand_total_awarded"
	GrandTotalMaximum = "grand_total_max"
)
