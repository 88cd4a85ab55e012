package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgload/pkg/pgload"
)

// PoolAdapter adapts *pgxpool.Pool to implement the pgload.DBConnection interface.
// This decouples the import engine from pgx-specific types, preventing
// direct exposure of pgx in the public API.
//
// Thread-Safety: Safe for concurrent use (pgxpool.Pool is thread-safe).
type PoolAdapter struct {
	pool *pgxpool.Pool
}

// NewPoolAdapter creates a new PoolAdapter wrapping the given pool.
func NewPoolAdapter(pool *pgxpool.Pool) pgload.DBConnection {
	return &PoolAdapter{pool: pool}
}

// Exec executes a statement without returning any rows.
func (p *PoolAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.pool.Exec(ctx, sql, args...)
}

// QueryRow executes a query that is expected to return at most one row.
func (p *PoolAdapter) QueryRow(ctx context.Context, sql string, args ...any) pgload.Row {
	return &rowAdapter{row: p.pool.QueryRow(ctx, sql, args...)}
}

// Query executes a query returning multiple rows.
func (p *PoolAdapter) Query(ctx context.Context, sql string, args ...any) (pgload.Rows, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return &rowsAdapter{rows: rows}, nil
}

// CopyFrom bulk-appends rows into schema.table using the PostgreSQL COPY protocol.
func (p *PoolAdapter) CopyFrom(ctx context.Context, schema, table string, columns []string, rows [][]any) (int64, error) {
	return p.pool.CopyFrom(ctx, pgx.Identifier{schema, table}, columns, pgx.CopyFromRows(rows))
}

// rowAdapter adapts pgx.Row to implement pgload.Row.
type rowAdapter struct {
	row interface{ Scan(...any) error }
}

// Scan reads the values from the row into dest values.
func (r *rowAdapter) Scan(dest ...any) error {
	return r.row.Scan(dest...)
}

// rowsAdapter adapts pgx.Rows to implement pgload.Rows.
type rowsAdapter struct {
	rows pgx.Rows
}

func (r *rowsAdapter) Next() bool             { return r.rows.Next() }
func (r *rowsAdapter) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r *rowsAdapter) Err() error             { return r.rows.Err() }
func (r *rowsAdapter) Close()                 { r.rows.Close() }
