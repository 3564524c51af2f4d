// Package postgres implements the Store interfaces on PostgreSQL using
// pgx. Schemas and row data are stored as JSONB; row order within a
// dataset is a persisted sequence number assigned under a dataset-level
// lock.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/csvdeck/csvdeck/internal/auth"
	"github.com/csvdeck/csvdeck/internal/core"
)

// Store wraps a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store on an existing pool. The pool's lifecycle belongs
// to the caller.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the tables and indexes if they do not exist. It
// is safe to run on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS datasets (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			columns JSONB NOT NULL,
			row_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_datasets_created_at ON datasets (created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS dataset_rows (
			id UUID PRIMARY KEY,
			dataset_id UUID NOT NULL REFERENCES datasets (id) ON DELETE CASCADE,
			seq BIGINT NOT NULL,
			data JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (dataset_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_dataset_rows_dataset_seq ON dataset_rows (dataset_id, seq)`,
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'ADMIN',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// ----------------------------------------------------------------------------
// Datasets
// ----------------------------------------------------------------------------

func (s *Store) CreateDataset(ctx context.Context, ds *core.Dataset) error {
	cols, err := json.Marshal(ds.Columns)
	if err != nil {
		return fmt.Errorf("marshal columns: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO datasets (id, name, columns, row_count, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		ds.ID, ds.Name, cols, ds.RowCount, ds.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	return nil
}

func (s *Store) LatestDataset(ctx context.Context) (*core.Dataset, error) {
	return s.queryDataset(ctx,
		`SELECT id, name, columns, row_count, created_at
		 FROM datasets ORDER BY created_at DESC LIMIT 1`)
}

func (s *Store) DatasetByName(ctx context.Context, name string) (*core.Dataset, error) {
	return s.queryDataset(ctx,
		`SELECT id, name, columns, row_count, created_at
		 FROM datasets WHERE name = $1 ORDER BY created_at DESC LIMIT 1`, name)
}

func (s *Store) RecentDatasets(ctx context.Context, limit int) ([]*core.Dataset, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, columns, row_count, created_at
		 FROM datasets ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent datasets: %w", err)
	}
	defer rows.Close()

	var out []*core.Dataset
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, rows.Err()
}

func (s *Store) queryDataset(ctx context.Context, query string, args ...any) (*core.Dataset, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query dataset: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanDataset(rows)
}

func scanDataset(rows pgx.Rows) (*core.Dataset, error) {
	var (
		ds      core.Dataset
		rawCols []byte
	)
	if err := rows.Scan(&ds.ID, &ds.Name, &rawCols, &ds.RowCount, &ds.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan dataset: %w", err)
	}
	if err := json.Unmarshal(rawCols, &ds.Columns); err != nil {
		return nil, fmt.Errorf("unmarshal columns: %w", err)
	}
	return &ds, nil
}

// ----------------------------------------------------------------------------
// Rows
// ----------------------------------------------------------------------------

func (s *Store) BulkInsertRows(ctx context.Context, datasetID string, records []core.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin bulk insert: %w", err)
	}
	defer tx.Rollback(ctx)

	base, err := lockNextSeq(ctx, tx, datasetID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for i, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal row: %w", err)
		}
		batch.Queue(
			`INSERT INTO dataset_rows (id, dataset_id, seq, data, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			uuid.NewString(), datasetID, base+int64(i), data, now,
		)
	}
	batch.Queue(
		`UPDATE datasets SET row_count = row_count + $1 WHERE id = $2`,
		len(records), datasetID,
	)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("bulk insert rows: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *Store) InsertRow(ctx context.Context, datasetID string, rec core.Record) (*core.Row, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal row: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback(ctx)

	seq, err := lockNextSeq(ctx, tx, datasetID)
	if err != nil {
		return nil, err
	}

	row := &core.Row{
		ID:        uuid.NewString(),
		DatasetID: datasetID,
		Seq:       seq,
		Data:      rec,
		CreatedAt: time.Now().UTC(),
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO dataset_rows (id, dataset_id, seq, data, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		row.ID, row.DatasetID, row.Seq, data, row.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert row: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return row, nil
}

// lockNextSeq takes the dataset's row lock and returns the next free
// sequence number. Concurrent inserts into the same dataset serialize
// on the dataset row, which keeps (dataset_id, seq) free of conflicts.
func lockNextSeq(ctx context.Context, tx pgx.Tx, datasetID string) (int64, error) {
	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT true FROM datasets WHERE id = $1 FOR UPDATE`, datasetID,
	).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("dataset %s does not exist", datasetID)
	}
	if err != nil {
		return 0, fmt.Errorf("lock dataset: %w", err)
	}

	var next int64
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq) + 1, 0) FROM dataset_rows WHERE dataset_id = $1`,
		datasetID,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return next, nil
}

func (s *Store) ListRows(ctx context.Context, datasetID string) ([]*core.Row, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, dataset_id, seq, data, created_at
		 FROM dataset_rows WHERE dataset_id = $1 ORDER BY seq`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}
	defer rows.Close()

	var out []*core.Row
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) RowAt(ctx context.Context, datasetID string, index int) (*core.Row, error) {
	if index < 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, dataset_id, seq, data, created_at
		 FROM dataset_rows WHERE dataset_id = $1
		 ORDER BY seq LIMIT 1 OFFSET $2`, datasetID, index)
	if err != nil {
		return nil, fmt.Errorf("row at: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanRow(rows)
}

func scanRow(rows pgx.Rows) (*core.Row, error) {
	var (
		row core.Row
		raw []byte
	)
	if err := rows.Scan(&row.ID, &row.DatasetID, &row.Seq, &raw, &row.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}
	if err := json.Unmarshal(raw, &row.Data); err != nil {
		return nil, fmt.Errorf("unmarshal row: %w", err)
	}
	return &row, nil
}

func (s *Store) UpdateRow(ctx context.Context, rowID string, data core.Record) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal row: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE dataset_rows SET data = $1 WHERE id = $2`, raw, rowID)
	if err != nil {
		return fmt.Errorf("update row: %w", err)
	}
	return nil
}

func (s *Store) DeleteRow(ctx context.Context, rowID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM dataset_rows WHERE id = $1`, rowID)
	if err != nil {
		return fmt.Errorf("delete row: %w", err)
	}
	return nil
}

func (s *Store) AddRowCount(ctx context.Context, datasetID string, delta int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE datasets SET row_count = row_count + $1 WHERE id = $2`,
		delta, datasetID)
	if err != nil {
		return fmt.Errorf("update row count: %w", err)
	}
	return nil
}

// ----------------------------------------------------------------------------
// Users
// ----------------------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, role, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.PasswordHash, u.Role, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*auth.User, error) {
	var u auth.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, role, created_at
		 FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("user by email: %w", err)
	}
	return &u, nil
}
