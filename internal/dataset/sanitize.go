package dataset

// Sanitize returns a copy of rec in which every missing, nil, NaN, or
// infinite value is replaced with the empty sentinel. All other values pass
// through unchanged. Sanitize never fails; upstream data quality is known to
// be unreliable and the safe default is an empty cell.
func Sanitize(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = SanitizeValue(v)
	}
	return out
}

// SanitizeValue maps a single value to its JSON- and CSV-safe form.
func SanitizeValue(v any) any {
	if v == nil || isNonFinite(v) {
		return Empty
	}
	return v
}

// SanitizeAll applies Sanitize to every record.
func SanitizeAll(recs []Record) []Record {
	out := make([]Record, len(recs))
	for i, r := range recs {
		out[i] = Sanitize(r)
	}
	return out
}
