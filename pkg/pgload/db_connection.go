package pgload

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
)

// DBConnection abstracts the three store primitives the import engine needs:
// DDL execution, metadata queries, and a bulk-append path. Any relational
// store offering these is substitutable; the shipped implementation adapts a
// pgx connection pool.
//
// Thread-Safety: Implementations should follow their underlying connection's
// thread-safety guarantees. Connection pool implementations are typically safe
// for concurrent use.
type DBConnection interface {
	// Exec executes a statement without returning any rows.
	// Returns CommandTag containing information about the execution.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// QueryRow executes a query that is expected to return at most one row.
	// Always returns a non-nil Row. Errors are deferred until Row's Scan method is called.
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// Query executes a query returning multiple rows.
	// The caller must Close the returned Rows.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// CopyFrom bulk-appends rows into schema.table using the store's native
	// bulk path (COPY for PostgreSQL). Returns the number of rows appended.
	CopyFrom(ctx context.Context, schema, table string, columns []string, rows [][]any) (int64, error)
}

// Row represents a single row returned by QueryRow.
// This interface decouples from pgx.Row.
type Row interface {
	// Scan reads the values from the row into dest values.
	// Returns an error if no row was found or if the scan fails.
	Scan(dest ...any) error
}

// Rows represents an iterable result set returned by Query.
type Rows interface {
	// Next advances to the next row, returning false when exhausted.
	Next() bool

	// Scan reads the current row's values into dest values.
	Scan(dest ...any) error

	// Err returns the error, if any, encountered during iteration.
	Err() error

	// Close releases the result set. Safe to call multiple times.
	Close()
}
