// Package schema manages target and staging table DDL.
//
// Targets are created with TEXT columns only: the import engine never
// guesses types, casting is left to downstream views. Staging tables are
// unlogged clones of the target, created per file and dropped afterwards.
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vvka-141/pgload/pkg/pgload"
)

// Staging identifies a staging table created for a single file import.
type Staging struct {
	Schema string
	Table  string
}

// Manager performs DDL against the target database.
type Manager struct {
	conn   pgload.DBConnection
	logger pgload.Logger
}

// NewManager creates a schema manager.
// Panics if conn or logger is nil, as these are required dependencies.
func NewManager(conn pgload.DBConnection, logger pgload.Logger) *Manager {
	if conn == nil {
		panic("conn cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Manager{conn: conn, logger: logger}
}

// TableExists reports whether the table exists in the given schema.
func (m *Manager) TableExists(ctx context.Context, schema, table string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2
		)`

	var exists bool
	if err := m.conn.QueryRow(ctx, query, schema, table).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check existence of %s.%s: %w", schema, table, err)
	}
	return exists, nil
}

// TableColumns returns the table's column names in ordinal position order.
func (m *Manager) TableColumns(ctx context.Context, schema, table string) ([]string, error) {
	const query = `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`

	rows, err := m.conn.Query(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s.%s: %w", schema, table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", err)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read columns of %s.%s: %w", schema, table, err)
	}
	return columns, nil
}

// EnsureTarget makes sure the target table exists and can absorb the file.
//
// When the table is absent it is created with one TEXT column per header
// column, in header order, plus a composite primary key over spec.PrimaryKey.
// When the table is present, primary key columns missing from the table are
// an error; file columns missing from the table are only warned about.
// Schema drift is reported, never reconciled by ALTER.
//
// Returns true when the table was created by this call.
func (m *Manager) EnsureTarget(ctx context.Context, spec *pgload.TableSpec, headerColumns []string) (bool, error) {
	if len(headerColumns) == 0 {
		return false, fmt.Errorf("cannot ensure table %q without columns: %w", spec.TargetTable, pgload.ErrInvalidConfig)
	}

	schema := spec.SchemaName()

	exists, err := m.TableExists(ctx, schema, spec.TargetTable)
	if err != nil {
		return false, err
	}

	if !exists {
		if err := m.createTarget(ctx, spec, headerColumns); err != nil {
			return false, err
		}
		return true, nil
	}

	tableColumns, err := m.TableColumns(ctx, schema, spec.TargetTable)
	if err != nil {
		return false, err
	}

	have := make(map[string]bool, len(tableColumns))
	for _, col := range tableColumns {
		have[col] = true
	}

	for _, pk := range spec.PrimaryKey {
		if !have[pk] {
			return false, fmt.Errorf("primary key column %q not present in existing table %s.%s: %w",
				pk, schema, spec.TargetTable, pgload.ErrInvalidConfig)
		}
	}

	for _, col := range headerColumns {
		if !have[col] {
			m.logger.Warn("Column %q from file is not present in table %s.%s; the load will fail unless it is added or mapped away",
				col, schema, spec.TargetTable)
		}
	}

	return false, nil
}

func (m *Manager) createTarget(ctx context.Context, spec *pgload.TableSpec, columns []string) error {
	schema := spec.SchemaName()

	missing := missingKeyColumns(spec.PrimaryKey, columns)
	if len(missing) > 0 {
		return fmt.Errorf("primary key column(s) %s not present in file header for table %q: %w",
			strings.Join(missing, ", "), spec.TargetTable, pgload.ErrInvalidConfig)
	}

	defs := make([]string, 0, len(columns)+1)
	for _, col := range columns {
		defs = append(defs, fmt.Sprintf("%s TEXT", QuoteIdent(col)))
	}
	defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", QuoteIdentList(spec.PrimaryKey)))

	query := fmt.Sprintf("CREATE TABLE %s.%s (%s)",
		QuoteIdent(schema), QuoteIdent(spec.TargetTable), strings.Join(defs, ", "))

	if _, err := m.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s.%s: %w", schema, spec.TargetTable, err)
	}

	m.logger.Info("Created table %s.%s with %d column(s)", schema, spec.TargetTable, len(columns))
	return nil
}

// Truncate removes all rows from the target table. The table itself is never
// dropped, so dependent views and grants survive a rebuild.
func (m *Manager) Truncate(ctx context.Context, spec *pgload.TableSpec) error {
	schema := spec.SchemaName()
	query := fmt.Sprintf("TRUNCATE TABLE %s.%s", QuoteIdent(schema), QuoteIdent(spec.TargetTable))

	if _, err := m.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to truncate table %s.%s: %w", schema, spec.TargetTable, err)
	}

	m.logger.Info("Truncated table %s.%s", schema, spec.TargetTable)
	return nil
}

// CreateStaging creates an unlogged, unindexed clone of the target table.
// The name carries a random suffix so concurrent imports into the same
// target never collide.
func (m *Manager) CreateStaging(ctx context.Context, spec *pgload.TableSpec) (*Staging, error) {
	schema := spec.SchemaName()
	name := fmt.Sprintf("staging_%s_%s", spec.TargetTable, uuid.New().String()[:8])

	query := fmt.Sprintf("CREATE UNLOGGED TABLE %s.%s (LIKE %s.%s INCLUDING DEFAULTS)",
		QuoteIdent(schema), QuoteIdent(name),
		QuoteIdent(schema), QuoteIdent(spec.TargetTable))

	if _, err := m.conn.Exec(ctx, query); err != nil {
		return nil, fmt.Errorf("failed to create staging table for %s.%s: %w", schema, spec.TargetTable, err)
	}

	m.logger.Verbose("Created staging table %s.%s", schema, name)
	return &Staging{Schema: schema, Table: name}, nil
}

// DropStaging drops a staging table. Safe to call after a failed create or
// a partial load; the drop is unconditional.
func (m *Manager) DropStaging(ctx context.Context, staging *Staging) error {
	query := fmt.Sprintf("DROP TABLE IF EXISTS %s.%s", QuoteIdent(staging.Schema), QuoteIdent(staging.Table))

	if _, err := m.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to drop staging table %s.%s: %w", staging.Schema, staging.Table, err)
	}

	m.logger.Verbose("Dropped staging table %s.%s", staging.Schema, staging.Table)
	return nil
}

func missingKeyColumns(key, columns []string) []string {
	have := make(map[string]bool, len(columns))
	for _, col := range columns {
		have[col] = true
	}
	var missing []string
	for _, pk := range key {
		if !have[pk] {
			missing = append(missing, pk)
		}
	}
	return missing
}
