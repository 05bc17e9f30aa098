package dataset

import (
	"github.com/rotisserie/eris"
)

// ErrShapeMismatch reports a dataset whose rows do not line up with its
// column list. It is a build failure, never retried.
var ErrShapeMismatch = eris.New("dataset: row/column shape mismatch")

// Dataset is an ordered column list plus rows positionally aligned to it.
// Every row has exactly len(Columns) values.
type Dataset struct {
	Columns []string
	Rows    [][]any
}

// Build projects sanitized records onto the given column order. Fields not in
// columns are dropped; columns missing from a record yield the empty
// sentinel. Column order is fixed for the dataset's lifetime.
func Build(columns []string, records []Record) (*Dataset, error) {
	if err := checkColumns(columns); err != nil {
		return nil, err
	}

	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		row := make([]any, len(columns))
		for i, col := range columns {
			v, ok := rec[col]
			if !ok {
				v = Empty
			}
			row[i] = SanitizeValue(v)
		}
		rows = append(rows, row)
	}

	ds := &Dataset{Columns: columns, Rows: rows}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// Validate enforces the shape invariant before emission.
func (d *Dataset) Validate() error {
	for i, row := range d.Rows {
		if len(row) != len(d.Columns) {
			return eris.Wrapf(ErrShapeMismatch, "row %d has %d values, want %d", i, len(row), len(d.Columns))
		}
	}
	return nil
}

// checkColumns rejects empty or duplicated column names.
func checkColumns(columns []string) error {
	if len(columns) == 0 {
		return eris.Wrap(ErrShapeMismatch, "no columns")
	}
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if _, dup := seen[c]; dup {
			return eris.Wrapf(ErrShapeMismatch, "duplicate column %q", c)
		}
		seen[c] = struct{}{}
	}
	return nil
}
