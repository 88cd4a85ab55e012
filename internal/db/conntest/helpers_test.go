//go:build conntest

package conntest

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/pgload/internal/db"
	"github.com/vvka-141/pgload/internal/testinfra"
	"github.com/vvka-141/pgload/pkg/pgload"
)

var stdContainer *testinfra.PostgresContainer

func TestMain(m *testing.M) {
	ctx := context.Background()

	std, err := testinfra.StartPostgres(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "start postgres: %v\n", err)
		os.Exit(1)
	}
	stdContainer = std

	code := m.Run()

	stdContainer.Terminate(ctx) //nolint:errcheck
	os.Exit(code)
}

func connectWithConfig(t *testing.T, config *pgload.ConnectionConfig) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	connector, err := db.NewConnector(config)
	if err != nil {
		t.Fatalf("create connector: %v", err)
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	t.Cleanup(func() { pool.Close() })
	return pool
}

func pingSucceeds(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	err := pool.Ping(context.Background())
	if err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func queryVersion(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()
	var version string
	err := pool.QueryRow(context.Background(), "SELECT version()").Scan(&version)
	if err != nil {
		t.Fatalf("query version: %v", err)
	}
	return version
}

func parseStdConnString(t *testing.T) *pgload.ConnectionConfig {
	t.Helper()
	config, err := db.ParseConnectionString(stdContainer.ConnString)
	if err != nil {
		t.Fatalf("parse connection string: %v", err)
	}
	return config
}
