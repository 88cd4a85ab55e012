// Package merge moves staged rows into target tables with one set-based
// statement per file.
//
// The merge deduplicates on the primary key as it reads the staging table:
// staging is append-only, so for duplicate keys within one file the row
// appended last wins. Conflicting rows only count as updated when a non-key
// column actually changed; identical rows are left untouched and reported
// as skipped.
package merge

import (
	"context"
	"fmt"
	"strings"

	"github.com/vvka-141/pgload/internal/schema"
	"github.com/vvka-141/pgload/pkg/pgload"
)

// Result reports the row-level outcome of one merge.
type Result struct {
	Inserted int64
	Updated  int64
	// Skipped is the number of staged rows that matched an existing row
	// byte for byte and caused no write.
	Skipped int64
}

// Upserter merges staging tables into their targets.
type Upserter struct {
	conn   pgload.DBConnection
	logger pgload.Logger
}

// NewUpserter creates an upserter.
// Panics if conn or logger is nil, as these are required dependencies.
func NewUpserter(conn pgload.DBConnection, logger pgload.Logger) *Upserter {
	if conn == nil {
		panic("conn cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Upserter{conn: conn, logger: logger}
}

// Merge upserts every staged row into the target table.
//
// columns is the full staged column list in file order; spec.PrimaryKey must
// be a subset. rowsStaged is the number of rows the loader appended and is
// used to derive the skipped count.
func (u *Upserter) Merge(ctx context.Context, staging *schema.Staging, spec *pgload.TableSpec, columns []string, rowsStaged int64) (*Result, error) {
	query := buildMergeQuery(staging, spec, columns)

	var inserted, updated int64
	if err := u.conn.QueryRow(ctx, query).Scan(&inserted, &updated); err != nil {
		return nil, fmt.Errorf("merge from %s.%s into %s.%s failed: %w: %w",
			staging.Schema, staging.Table, spec.SchemaName(), spec.TargetTable, err, pgload.ErrMergeFailed)
	}

	skipped := rowsStaged - inserted - updated
	if skipped < 0 {
		skipped = 0
	}

	u.logger.Verbose("Merged %s.%s: %d inserted, %d updated, %d unchanged",
		spec.SchemaName(), spec.TargetTable, inserted, updated, skipped)

	return &Result{Inserted: inserted, Updated: updated, Skipped: skipped}, nil
}

// buildMergeQuery assembles the single-statement merge.
//
// DISTINCT ON over the key with ctid DESC ordering picks the physically last
// staged row per key, so ON CONFLICT never sees the same key twice within
// one statement. xmax = 0 on a returned row means it was freshly inserted;
// anything else is an updated pre-existing row. The DO UPDATE WHERE guard
// keeps byte-identical rows from being rewritten, which is what makes the
// whole operation idempotent.
func buildMergeQuery(staging *schema.Staging, spec *pgload.TableSpec, columns []string) string {
	target := schema.QuoteIdent(spec.SchemaName()) + "." + schema.QuoteIdent(spec.TargetTable)
	source := schema.QuoteIdent(staging.Schema) + "." + schema.QuoteIdent(staging.Table)

	columnList := schema.QuoteIdentList(columns)
	keyList := schema.QuoteIdentList(spec.PrimaryKey)

	isKey := make(map[string]bool, len(spec.PrimaryKey))
	for _, col := range spec.PrimaryKey {
		isKey[col] = true
	}

	var sets, changed []string
	for _, col := range columns {
		if isKey[col] {
			continue
		}
		q := schema.QuoteIdent(col)
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", q, q))
		changed = append(changed, fmt.Sprintf("target.%s IS DISTINCT FROM EXCLUDED.%s", q, q))
	}

	var conflictAction string
	if len(sets) == 0 {
		// Key-only table: a conflicting row can never differ, so there is
		// nothing to update.
		conflictAction = "DO NOTHING"
	} else {
		conflictAction = fmt.Sprintf("DO UPDATE SET %s WHERE %s",
			strings.Join(sets, ", "), strings.Join(changed, " OR "))
	}

	ctidOrder := keyList + ", ctid DESC"

	return fmt.Sprintf(`WITH merged AS (
	INSERT INTO %s AS target (%s)
	SELECT DISTINCT ON (%s) %s
	FROM %s
	ORDER BY %s
	ON CONFLICT (%s) %s
	RETURNING xmax
)
SELECT
	COUNT(*) FILTER (WHERE xmax = 0),
	COUNT(*) FILTER (WHERE xmax <> 0)
FROM merged`,
		target, columnList,
		keyList, columnList,
		source,
		ctidOrder,
		keyList, conflictAction)
}
