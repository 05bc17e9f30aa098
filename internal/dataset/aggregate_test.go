package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccumulate(t *testing.T) {
	totals := NewTotals(StatSpecs)

	totals = Accumulate(totals, Record{
		"sent":      float64(100),
		"delivered": float64(90),
		"read":      float64(40),
		"clicked":   float64(10),
	}, StatSpecs)
	totals = Accumulate(totals, Record{
		"sent":      float64(50),
		"delivered": float64(45),
		"opened":    float64(20), // no "read" field at all
		"clicked":   float64(5),
	}, StatSpecs)

	assert.Equal(t, int64(150), totals["sent"])
	assert.Equal(t, int64(135), totals["delivered"])
	assert.Equal(t, int64(60), totals["read"])
	assert.Equal(t, int64(15), totals["clicked"])
}

func TestAccumulateAllNullIsNoOp(t *testing.T) {
	totals := Totals{"sent": 7, "delivered": 3, "read": 2, "clicked": 1}

	got := Accumulate(totals, Record{
		"sent":      nil,
		"delivered": nil,
		// read, clicked absent entirely
	}, StatSpecs)

	assert.Equal(t, Totals{"sent": 7, "delivered": 3, "read": 2, "clicked": 1}, got)
}

func TestAccumulateFallbackOrder(t *testing.T) {
	specs := []CounterSpec{{Name: "read", Field: "read", Fallbacks: []string{"opened"}}}

	// Primary nil: fallback value wins.
	totals := Accumulate(NewTotals(specs), Record{"read": nil, "opened": float64(5)}, specs)
	assert.Equal(t, int64(5), totals["read"])

	// Primary explicitly zero: zero is final, fallback is not consulted.
	totals = Accumulate(NewTotals(specs), Record{"read": float64(0), "opened": float64(5)}, specs)
	assert.Equal(t, int64(0), totals["read"])

	// Both nil/absent: zero contribution.
	totals = Accumulate(NewTotals(specs), Record{"read": nil}, specs)
	assert.Equal(t, int64(0), totals["read"])
}

func TestAccumulateNonNumeric(t *testing.T) {
	totals := Accumulate(NewTotals(StatSpecs), Record{
		"sent":      "not a number",
		"delivered": float64(12),
	}, StatSpecs)

	// Degrades to zero instead of failing the aggregation.
	assert.Equal(t, int64(0), totals["sent"])
	assert.Equal(t, int64(12), totals["delivered"])
}

func TestAccumulateNumericStrings(t *testing.T) {
	totals := Accumulate(NewTotals(StatSpecs), Record{"sent": "42"}, StatSpecs)
	assert.Equal(t, int64(42), totals["sent"])
}
