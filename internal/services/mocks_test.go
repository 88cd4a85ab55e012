package services

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/pgload/pkg/pgload"
)

// columnDefRe picks column names out of generated CREATE TABLE statements.
var columnDefRe = regexp.MustCompile(`"([^"]+)" TEXT`)

// fakeDB emulates just enough of the store for the pipeline: existence
// checks, column metadata, DDL, bulk appends, and the merge statement.
// Safe for concurrent use, workers share one instance per batch.
type fakeDB struct {
	mu sync.Mutex

	// existing marks target tables that pre-exist; CREATE TABLE statements
	// add to it so a second file for the same target sees the table.
	existing map[string]bool

	// columns answers information_schema lookups for pre-existing tables.
	columns map[string][]string

	executed []string
	copied   map[string]int64 // staging table -> rows appended

	execErr  error
	copyErr  error
	mergeErr error

	// mergeUpdated overrides how many merged rows count as updates;
	// the remainder of the staged rows counts as inserts.
	mergeUpdated int64
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		existing: make(map[string]bool),
		columns:  make(map[string][]string),
		copied:   make(map[string]int64),
	}
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.executed = append(f.executed, sql)
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	if strings.HasPrefix(sql, "CREATE TABLE ") {
		table := quotedTableName(sql)
		f.existing[table] = true
		for _, m := range columnDefRe.FindAllStringSubmatch(sql, -1) {
			f.columns[table] = append(f.columns[table], m[1])
		}
	}
	return pgconn.CommandTag{}, nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgload.Row {
	f.mu.Lock()
	defer f.mu.Unlock()

	if strings.Contains(sql, "SELECT EXISTS") {
		table, _ := args[1].(string)
		return &existsRow{exists: f.existing[table]}
	}

	// The merge statement. Staged rows not claimed as updates are inserts.
	if f.mergeErr != nil {
		return &mergeRow{err: f.mergeErr}
	}
	staged := f.copied[stagingTableOf(sql)]
	updated := f.mergeUpdated
	if updated > staged {
		updated = staged
	}
	return &mergeRow{inserted: staged - updated, updated: updated}
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgload.Rows, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	table, _ := args[1].(string)
	return &columnRows{values: f.columns[table]}, nil
}

func (f *fakeDB) CopyFrom(ctx context.Context, schema, table string, columns []string, rows [][]any) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.copyErr != nil {
		return 0, f.copyErr
	}
	f.copied[table] += int64(len(rows))
	return int64(len(rows)), nil
}

func (f *fakeDB) statements(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []string
	for _, sql := range f.executed {
		if strings.HasPrefix(sql, prefix) {
			matched = append(matched, sql)
		}
	}
	return matched
}

// quotedTableName pulls the bare table name out of `CREATE TABLE "s"."t" (...`.
func quotedTableName(sql string) string {
	open := strings.Index(sql, `."`)
	if open < 0 {
		return ""
	}
	rest := sql[open+2:]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return ""
	}
	return rest[:end]
}

// stagingTableOf finds the staging_<table>_<suffix> identifier in the merge SQL.
func stagingTableOf(sql string) string {
	start := strings.Index(sql, `."staging_`)
	if start < 0 {
		return ""
	}
	rest := sql[start+2:]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return ""
	}
	return rest[:end]
}

type existsRow struct {
	exists bool
}

func (r *existsRow) Scan(dest ...any) error {
	*(dest[0].(*bool)) = r.exists
	return nil
}

type mergeRow struct {
	inserted int64
	updated  int64
	err      error
}

func (r *mergeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.inserted
	*(dest[1].(*int64)) = r.updated
	return nil
}

type columnRows struct {
	values []string
	pos    int
}

func (r *columnRows) Next() bool {
	return r.pos < len(r.values)
}

func (r *columnRows) Scan(dest ...any) error {
	*(dest[0].(*string)) = r.values[r.pos]
	r.pos++
	return nil
}

func (r *columnRows) Err() error { return nil }
func (r *columnRows) Close()     {}
