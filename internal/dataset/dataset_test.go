package dataset

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func TestBuildProjection(t *testing.T) {
	cols := []string{"pagename", "sent", "read"}
	recs := []Record{
		{"pagename": "P1", "sent": float64(10), "read": float64(4), "extra": "dropped"},
		{"pagename": "P2", "sent": float64(7)}, // read missing
	}

	ds, err := Build(cols, recs)
	require.NoError(t, err)

	require.Len(t, ds.Rows, 2)
	assert.Equal(t, []any{"P1", float64(10), float64(4)}, ds.Rows[0])
	assert.Equal(t, []any{"P2", float64(7), ""}, ds.Rows[1])
	for _, row := range ds.Rows {
		assert.Len(t, row, len(ds.Columns))
	}
}

func TestBuildRejectsBadColumns(t *testing.T) {
	_, err := Build(nil, nil)
	assert.True(t, eris.Is(err, ErrShapeMismatch))

	_, err = Build([]string{"a", "a"}, nil)
	assert.True(t, eris.Is(err, ErrShapeMismatch))
}

func TestValidateShape(t *testing.T) {
	ds := &Dataset{
		Columns: []string{"a", "b"},
		Rows:    [][]any{{1, 2}, {3}},
	}
	err := ds.Validate()
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrShapeMismatch))
	assert.Contains(t, err.Error(), "row 1")
}

func TestWriteCSV(t *testing.T) {
	ds := &Dataset{
		Columns: []string{"pagename", "sent", "rate", "active"},
		Rows: [][]any{
			{"P1", float64(120), 0.5, true},
			{"P2", float64(0), "", false},
		},
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteCSV(ds, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"pagename", "sent", "rate", "active"}, records[0])
	assert.Equal(t, []string{"P1", "120", "0.5", "true"}, records[1])
	assert.Equal(t, []string{"P2", "0", "", "false"}, records[2])
}

func TestWriteXLSX(t *testing.T) {
	ds := &Dataset{
		Columns: []string{"pagename", "sent"},
		Rows:    [][]any{{"P1", float64(42)}},
	}

	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteXLSX(ds, path, "source"))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	assert.Equal(t, "source", f.Sheets[0].Name)
	require.Len(t, f.Sheets[0].Rows, 2)
	assert.Equal(t, "pagename", f.Sheets[0].Rows[0].Cells[0].String())
	assert.Equal(t, "P1", f.Sheets[0].Rows[1].Cells[0].String())
}

func TestCellString(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "x", "x"},
		{"integral float", float64(10), "10"},
		{"fractional float", 2.25, "2.25"},
		{"int", 3, "3"},
		{"int64", int64(4), "4"},
		{"bool", true, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CellString(tt.in))
		})
	}
}
