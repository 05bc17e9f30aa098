package sheet

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS sheets (
	name           TEXT PRIMARY KEY,
	headers        TEXT NOT NULL DEFAULT '[]',
	last_write     DATETIME,
	last_row_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sheet_rows (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	sheet TEXT NOT NULL REFERENCES sheets(name),
	cells TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS upload_results (
	request_id TEXT PRIMARY KEY,
	result     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_sheet_rows_sheet ON sheet_rows(sheet);
`

// Migrate creates the schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

func (s *SQLiteStore) GetSheet(ctx context.Context, name string) (*Sheet, error) {
	var headersJSON string
	err := s.db.QueryRowContext(ctx, `SELECT headers FROM sheets WHERE name = ?`, name).Scan(&headersJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get sheet %s", name)
	}

	sh := &Sheet{Name: name}
	if err := json.Unmarshal([]byte(headersJSON), &sh.Headers); err != nil {
		return nil, eris.Wrapf(err, "sqlite: decode headers for %s", name)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT cells FROM sheet_rows WHERE sheet = ? ORDER BY id`, name)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get rows for %s", name)
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var cellsJSON string
		if err := rows.Scan(&cellsJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan row")
		}
		var cells []any
		if err := json.Unmarshal([]byte(cellsJSON), &cells); err != nil {
			return nil, eris.Wrap(err, "sqlite: decode row")
		}
		sh.Rows = append(sh.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate rows")
	}
	return sh, nil
}

func (s *SQLiteStore) CreateSheet(ctx context.Context, name string) (*Sheet, error) {
	if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO sheets (name) VALUES (?)`, name); err != nil {
		return nil, eris.Wrapf(err, "sqlite: create sheet %s", name)
	}
	return &Sheet{Name: name}, nil
}

func (s *SQLiteStore) SetHeaders(ctx context.Context, name string, headers []string) error {
	data, err := json.Marshal(headers)
	if err != nil {
		return eris.Wrap(err, "sqlite: encode headers")
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO sheets (name, headers) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET headers = excluded.headers`,
		name, string(data)); err != nil {
		return eris.Wrapf(err, "sqlite: set headers on %s", name)
	}
	return nil
}

// AppendRows inserts rows one at a time so that a mid-write failure reports
// how many rows were confirmed.
func (s *SQLiteStore) AppendRows(ctx context.Context, name string, rows [][]any) (int, error) {
	written := 0
	for _, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			return written, eris.Wrap(err, "sqlite: encode row")
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO sheet_rows (sheet, cells) VALUES (?, ?)`, name, string(data)); err != nil {
			return written, eris.Wrapf(err, "sqlite: append row to %s", name)
		}
		written++
	}
	return written, nil
}

func (s *SQLiteStore) ClearRows(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sheet_rows WHERE sheet = ?`, name); err != nil {
		return eris.Wrapf(err, "sqlite: clear rows on %s", name)
	}
	return nil
}

func (s *SQLiteStore) Annotate(ctx context.Context, name string, meta Meta) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE sheets SET last_write = ?, last_row_count = ? WHERE name = ?`,
		meta.LastWrite, meta.LastRowCount, name); err != nil {
		return eris.Wrapf(err, "sqlite: annotate %s", name)
	}
	return nil
}

func (s *SQLiteStore) GetResult(ctx context.Context, requestID string) (*UploadResult, error) {
	var resultJSON string
	err := s.db.QueryRowContext(ctx, `SELECT result FROM upload_results WHERE request_id = ?`, requestID).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get result %s", requestID)
	}
	var res UploadResult
	if err := json.Unmarshal([]byte(resultJSON), &res); err != nil {
		return nil, eris.Wrap(err, "sqlite: decode result")
	}
	return &res, nil
}

func (s *SQLiteStore) PutResult(ctx context.Context, requestID string, res *UploadResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return eris.Wrap(err, "sqlite: encode result")
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO upload_results (request_id, result) VALUES (?, ?)
		 ON CONFLICT(request_id) DO UPDATE SET result = excluded.result`,
		requestID, string(data)); err != nil {
		return eris.Wrapf(err, "sqlite: put result %s", requestID)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
