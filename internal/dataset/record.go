// Package dataset builds sanitized tabular datasets from raw per-campaign
// statistic records and emits them as CSV or XLSX.
package dataset

import (
	"encoding/json"
	"math"
	"strconv"
)

// Record is one raw statistics record from the source API: field name to
// value. Values are whatever JSON decoding produced (string, float64, bool,
// nil) plus ints from locally built rows. A nil value and a missing key are
// treated identically everywhere in this package.
type Record map[string]any

// Empty is the sentinel written in place of missing, null, NaN, or infinite
// values.
const Empty = ""

// asNumber coerces v to a float64. The second result is false when v is not a
// usable number (non-numeric type, unparseable string, NaN, or ±Inf).
func asNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// isNonFinite reports whether v is a float carrying NaN or ±Inf.
func isNonFinite(v any) bool {
	switch f := v.(type) {
	case float64:
		return math.IsNaN(f) || math.IsInf(f, 0)
	case float32:
		g := float64(f)
		return math.IsNaN(g) || math.IsInf(g, 0)
	}
	return false
}
