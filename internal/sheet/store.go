package sheet

import (
	"context"
	"time"
)

// Sheet is the persisted state of one tab: its header row and its data rows.
// Headers of length zero mean the sheet is empty (no header row written yet).
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// Meta is the observability annotation recorded after each write. It is not
// part of the data contract.
type Meta struct {
	LastWrite    time.Time
	LastRowCount int
}

// Store persists sheets for the upload endpoint. Implementations: in-memory
// (tests), SQLite (default), Postgres.
type Store interface {
	// GetSheet returns the sheet, or nil when no sheet of that name exists.
	GetSheet(ctx context.Context, name string) (*Sheet, error)
	// CreateSheet creates an empty sheet.
	CreateSheet(ctx context.Context, name string) (*Sheet, error)
	// SetHeaders replaces the sheet's header row.
	SetHeaders(ctx context.Context, name string, headers []string) error
	// AppendRows appends data rows after the current last row. It returns the
	// number of rows confirmed written, which may be short of len(rows) when
	// an error is also returned.
	AppendRows(ctx context.Context, name string, rows [][]any) (int, error)
	// ClearRows deletes all data rows, keeping the header row.
	ClearRows(ctx context.Context, name string) error
	// Annotate records the write metadata for the sheet.
	Annotate(ctx context.Context, name string, meta Meta) error

	// GetResult returns the stored outcome for a previously processed upload
	// request id, or nil if the id has not been seen.
	GetResult(ctx context.Context, requestID string) (*UploadResult, error)
	// PutResult records the outcome of a processed upload request id.
	PutResult(ctx context.Context, requestID string, res *UploadResult) error

	// Migrate creates backing schema objects.
	Migrate(ctx context.Context) error
	Close() error
}
