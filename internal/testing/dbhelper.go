// Package testing provides shared helpers for integration tests.
package testing

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/pgload/internal/db"
	"github.com/vvka-141/pgload/internal/logging"
	"github.com/vvka-141/pgload/internal/services"
	"github.com/vvka-141/pgload/internal/testinfra"
	"github.com/vvka-141/pgload/pkg/pgload"
)

var (
	testContainerOnce sync.Once
	testContainerConn string
	testContainerErr  error
)

func getOrStartTestContainer() (string, error) {
	testContainerOnce.Do(func() {
		ctx := context.Background()
		container, err := testinfra.StartPostgres(ctx)
		if err != nil {
			testContainerErr = err
			return
		}
		testContainerConn = container.ConnString
	})
	return testContainerConn, testContainerErr
}

// GetTestConnectionString returns the test database connection string.
// Priority: PGLOAD_TEST_CONN env var > auto-started testcontainer > skip test.
func GetTestConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv("PGLOAD_TEST_CONN"); connString != "" {
		return connString
	}

	connString, err := getOrStartTestContainer()
	if err != nil {
		t.Skipf("PGLOAD_TEST_CONN not set and Docker unavailable: %v", err)
	}
	return connString
}

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDatabase combines SkipIfShort and GetTestConnectionString for convenience.
// Returns the test connection string if available, otherwise skips the test.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	return GetTestConnectionString(t)
}

// ParseTestConnection parses connString into a ConnectionConfig, failing the
// test on malformed input.
func ParseTestConnection(t *testing.T, connString string) *pgload.ConnectionConfig {
	t.Helper()

	cfg, err := db.ParseConnectionString(connString)
	if err != nil {
		t.Fatalf("Failed to parse connection string: %v", err)
	}
	return cfg
}

// NewTestImporter creates an Importer wired with the standard connector
// factory and a silent logger.
func NewTestImporter(t *testing.T) pgload.Importer {
	t.Helper()

	return services.NewImportService(db.NewConnector, logging.NewNullLogger())
}

// GetTestPool creates a connection pool for direct assertions against the
// test database. The pool is closed when the test completes.
func GetTestPool(t *testing.T, connString string) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}

	t.Cleanup(pool.Close)
	return pool
}
