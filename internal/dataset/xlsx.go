package dataset

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// WriteXLSX writes the dataset to path as a single-sheet workbook.
func WriteXLSX(d *Dataset, path, sheetName string) error {
	if err := d.Validate(); err != nil {
		return err
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrapf(err, "dataset: add sheet %s", sheetName)
	}

	header := sheet.AddRow()
	for _, col := range d.Columns {
		header.AddCell().SetString(col)
	}
	for _, row := range d.Rows {
		r := sheet.AddRow()
		for _, v := range row {
			cell := r.AddCell()
			switch c := v.(type) {
			case string:
				cell.SetString(c)
			case bool:
				cell.SetBool(c)
			case float64:
				cell.SetFloat(c)
			case int:
				cell.SetInt(c)
			case int64:
				cell.SetInt64(c)
			default:
				cell.SetString(CellString(v))
			}
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "dataset: save xlsx %s", path)
	}
	return nil
}
