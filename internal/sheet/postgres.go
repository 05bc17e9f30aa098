package sheet

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// PgxPool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it
// in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool PgxPool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS sheets (
	name           TEXT PRIMARY KEY,
	headers        JSONB NOT NULL DEFAULT '[]',
	last_write     TIMESTAMPTZ,
	last_row_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sheet_rows (
	id    BIGSERIAL PRIMARY KEY,
	sheet TEXT NOT NULL REFERENCES sheets(name),
	cells JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS upload_results (
	request_id TEXT PRIMARY KEY,
	result     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_sheet_rows_sheet ON sheet_rows(sheet);
`

// Migrate creates the schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

func (s *PostgresStore) GetSheet(ctx context.Context, name string) (*Sheet, error) {
	var headersJSON []byte
	err := s.pool.QueryRow(ctx, `SELECT headers FROM sheets WHERE name = $1`, name).Scan(&headersJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get sheet %s", name)
	}

	sh := &Sheet{Name: name}
	if err := json.Unmarshal(headersJSON, &sh.Headers); err != nil {
		return nil, eris.Wrapf(err, "postgres: decode headers for %s", name)
	}

	rows, err := s.pool.Query(ctx, `SELECT cells FROM sheet_rows WHERE sheet = $1 ORDER BY id`, name)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get rows for %s", name)
	}
	defer rows.Close()

	for rows.Next() {
		var cellsJSON []byte
		if err := rows.Scan(&cellsJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan row")
		}
		var cells []any
		if err := json.Unmarshal(cellsJSON, &cells); err != nil {
			return nil, eris.Wrap(err, "postgres: decode row")
		}
		sh.Rows = append(sh.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate rows")
	}
	return sh, nil
}

func (s *PostgresStore) CreateSheet(ctx context.Context, name string) (*Sheet, error) {
	if _, err := s.pool.Exec(ctx, `INSERT INTO sheets (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name); err != nil {
		return nil, eris.Wrapf(err, "postgres: create sheet %s", name)
	}
	return &Sheet{Name: name}, nil
}

func (s *PostgresStore) SetHeaders(ctx context.Context, name string, headers []string) error {
	data, err := json.Marshal(headers)
	if err != nil {
		return eris.Wrap(err, "postgres: encode headers")
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO sheets (name, headers) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET headers = excluded.headers`,
		name, data); err != nil {
		return eris.Wrapf(err, "postgres: set headers on %s", name)
	}
	return nil
}

// AppendRows inserts rows one at a time so that a mid-write failure reports
// how many rows were confirmed.
func (s *PostgresStore) AppendRows(ctx context.Context, name string, rows [][]any) (int, error) {
	written := 0
	for _, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			return written, eris.Wrap(err, "postgres: encode row")
		}
		if _, err := s.pool.Exec(ctx, `INSERT INTO sheet_rows (sheet, cells) VALUES ($1, $2)`, name, data); err != nil {
			return written, eris.Wrapf(err, "postgres: append row to %s", name)
		}
		written++
	}
	return written, nil
}

func (s *PostgresStore) ClearRows(ctx context.Context, name string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM sheet_rows WHERE sheet = $1`, name); err != nil {
		return eris.Wrapf(err, "postgres: clear rows on %s", name)
	}
	return nil
}

func (s *PostgresStore) Annotate(ctx context.Context, name string, meta Meta) error {
	if _, err := s.pool.Exec(ctx,
		`UPDATE sheets SET last_write = $1, last_row_count = $2 WHERE name = $3`,
		meta.LastWrite, meta.LastRowCount, name); err != nil {
		return eris.Wrapf(err, "postgres: annotate %s", name)
	}
	return nil
}

func (s *PostgresStore) GetResult(ctx context.Context, requestID string) (*UploadResult, error) {
	var resultJSON []byte
	err := s.pool.QueryRow(ctx, `SELECT result FROM upload_results WHERE request_id = $1`, requestID).Scan(&resultJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get result %s", requestID)
	}
	var res UploadResult
	if err := json.Unmarshal(resultJSON, &res); err != nil {
		return nil, eris.Wrap(err, "postgres: decode result")
	}
	return &res, nil
}

func (s *PostgresStore) PutResult(ctx context.Context, requestID string, res *UploadResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return eris.Wrap(err, "postgres: encode result")
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO upload_results (request_id, result) VALUES ($1, $2)
		 ON CONFLICT (request_id) DO UPDATE SET result = excluded.result`,
		requestID, data); err != nil {
		return eris.Wrapf(err, "postgres: put result %s", requestID)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
