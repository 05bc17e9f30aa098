package dataset

import (
	"go.uber.org/zap"
)

// CounterSpec names one aggregate counter and the record fields feeding it.
// The primary field is read first; if it is nil or absent each fallback is
// tried in order. The first non-nil value found is the contribution — an
// explicit zero is final and does not fall through.
type CounterSpec struct {
	Name      string
	Field     string
	Fallbacks []string
}

// StatSpecs enumerates the campaign counters and their source fields. The
// read count falls back to the opened count; older campaigns only report
// the latter.
var StatSpecs = []CounterSpec{
	{Name: "sent", Field: "sent"},
	{Name: "delivered", Field: "delivered"},
	{Name: "read", Field: "read", Fallbacks: []string{"opened"}},
	{Name: "clicked", Field: "clicked"},
}

// Totals holds running counter totals keyed by counter name.
type Totals map[string]int64

// NewTotals returns zeroed totals for the given specs.
func NewTotals(specs []CounterSpec) Totals {
	t := make(Totals, len(specs))
	for _, s := range specs {
		t[s.Name] = 0
	}
	return t
}

// Accumulate folds one record into the totals. Nil and absent fields
// contribute zero; a present non-numeric value is a data error that is logged
// and likewise contributes zero rather than aborting the aggregation.
// The totals map is mutated and returned.
func Accumulate(totals Totals, rec Record, specs []CounterSpec) Totals {
	for _, spec := range specs {
		totals[spec.Name] += contribution(rec, spec)
	}
	return totals
}

// contribution resolves one counter's value from the record's field chain.
func contribution(rec Record, spec CounterSpec) int64 {
	fields := append([]string{spec.Field}, spec.Fallbacks...)
	for _, f := range fields {
		v, ok := rec[f]
		if !ok || v == nil {
			continue
		}
		n, ok := asNumber(v)
		if !ok {
			zap.L().Warn("non-numeric contribution treated as zero",
				zap.String("counter", spec.Name),
				zap.String("field", f),
				zap.Any("value", v),
			)
			return 0
		}
		return int64(n)
	}
	return 0
}
