package sheet

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "sheets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLiteSheetLifecycle(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	// Unknown sheet reads as nil.
	sh, err := st.GetSheet(ctx, "source")
	require.NoError(t, err)
	assert.Nil(t, sh)

	_, err = st.CreateSheet(ctx, "source")
	require.NoError(t, err)
	require.NoError(t, st.SetHeaders(ctx, "source", []string{"pagename", "sent"}))

	n, err := st.AppendRows(ctx, "source", [][]any{
		{"P1", float64(10)},
		{"P2", float64(0)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	sh, err = st.GetSheet(ctx, "source")
	require.NoError(t, err)
	require.NotNil(t, sh)
	assert.Equal(t, []string{"pagename", "sent"}, sh.Headers)
	require.Len(t, sh.Rows, 2)
	// Values round-trip through JSON: numbers come back as float64.
	assert.Equal(t, []any{"P1", float64(10)}, sh.Rows[0])
	assert.Equal(t, []any{"P2", float64(0)}, sh.Rows[1])
}

func TestSQLiteSetHeadersUpsertsAndRewrites(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	// SetHeaders on a nonexistent sheet creates it.
	require.NoError(t, st.SetHeaders(ctx, "s", []string{"a"}))
	require.NoError(t, st.SetHeaders(ctx, "s", []string{"a", "b"}))

	sh, err := st.GetSheet(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, sh.Headers)
}

func TestSQLiteClearRows(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, st.SetHeaders(ctx, "s", []string{"a"}))
	_, err := st.AppendRows(ctx, "s", [][]any{{"1"}, {"2"}})
	require.NoError(t, err)
	require.NoError(t, st.ClearRows(ctx, "s"))

	sh, err := st.GetSheet(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, sh.Headers)
	assert.Empty(t, sh.Rows)
}

func TestSQLiteAnnotate(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, st.SetHeaders(ctx, "s", []string{"a"}))
	require.NoError(t, st.Annotate(ctx, "s", Meta{
		LastWrite:    time.Date(2025, 9, 27, 12, 0, 0, 0, time.UTC),
		LastRowCount: 5,
	}))
}

func TestSQLiteUploadResults(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	got, err := st.GetResult(ctx, "unseen")
	require.NoError(t, err)
	assert.Nil(t, got)

	res := &UploadResult{Success: true, SheetName: "s", RowsAdded: 3, TotalRows: 4, Timestamp: "2025-09-27T12:00:00Z"}
	require.NoError(t, st.PutResult(ctx, "req-1", res))

	got, err = st.GetResult(ctx, "req-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, res, got)
}

func TestSQLiteBackedHandler(t *testing.T) {
	st := newTestSQLite(t)
	h := NewHandler(st)
	ctx := context.Background()

	_, err := h.Upload(ctx, UploadRequest{
		SheetName: "source",
		Headers:   []string{"pagename", "count"},
		Rows:      [][]any{{"P1", float64(1)}},
	})
	require.NoError(t, err)

	res, err := h.Upload(ctx, UploadRequest{
		SheetName: "source",
		Headers:   []string{"page_name", "count", "rate"},
		Rows:      [][]any{{"P2", float64(2), "5%"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowsAdded)
	assert.Equal(t, 3, res.TotalRows)

	sh, err := st.GetSheet(ctx, "source")
	require.NoError(t, err)
	assert.Equal(t, []string{"page_name", "count", "rate"}, sh.Headers)
	require.Len(t, sh.Rows, 2)
	assert.Equal(t, []any{"P2", float64(2), "5%"}, sh.Rows[1])
}
