package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
)

// WriteCSV writes the dataset to path with a header row.
func WriteCSV(d *Dataset, path string) error {
	if err := d.Validate(); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "dataset: create csv %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(d.Columns); err != nil {
		return eris.Wrap(err, "dataset: write csv header")
	}
	for _, row := range d.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = CellString(v)
		}
		if err := w.Write(cells); err != nil {
			return eris.Wrap(err, "dataset: write csv row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "dataset: flush csv")
	}
	return nil
}

// ReadCSV loads a previously written dataset from path. The first row is the
// header; every cell comes back as text.
func ReadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open csv %s", path)
	}
	defer f.Close() //nolint:errcheck

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read csv %s", path)
	}
	if len(records) == 0 {
		return nil, eris.Wrapf(ErrShapeMismatch, "dataset: csv %s has no header row", path)
	}

	d := &Dataset{Columns: records[0]}
	if err := checkColumns(d.Columns); err != nil {
		return nil, err
	}
	for _, rec := range records[1:] {
		row := make([]any, len(rec))
		for i, cell := range rec {
			row[i] = cell
		}
		d.Rows = append(d.Rows, row)
	}
	return d, d.Validate()
}

// CellString renders a sanitized scalar for CSV output. Integral floats lose
// their trailing ".0" so counters round-trip as integers.
func CellString(v any) string {
	switch c := v.(type) {
	case nil:
		return Empty
	case string:
		return c
	case bool:
		return strconv.FormatBool(c)
	case float64:
		if c == float64(int64(c)) {
			return strconv.FormatInt(int64(c), 10)
		}
		return strconv.FormatFloat(c, 'f', -1, 64)
	case int:
		return strconv.Itoa(c)
	case int64:
		return strconv.FormatInt(c, 10)
	default:
		return fmt.Sprint(c)
	}
}
