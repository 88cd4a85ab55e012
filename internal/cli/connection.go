package cli

import (
	"os"

	"github.com/vvka-141/pgload/internal/config"
	"github.com/vvka-141/pgload/internal/db"
	"github.com/vvka-141/pgload/pkg/pgload"
)

// connectionStringFromEnv returns the first non-empty connection string from
// PGLOAD_CONNECTION_STRING or DATABASE_URL environment variables.
func connectionStringFromEnv() string {
	if s := os.Getenv("PGLOAD_CONNECTION_STRING"); s != "" {
		return s
	}
	return os.Getenv("DATABASE_URL")
}

// connFlagValues holds the connection-related flags shared by commands that
// reach the database.
type connFlagValues struct {
	connection, host, username, database, sslMode string
	port                                          int
	azureTenantID, azureClientID                  string
	awsIAM                                        bool
	awsRegion                                     string
	googleInstance                                string
}

// resolveConnection turns CLI flags, environment variables, and the project
// config into a single ConnectionConfig. Flag > env > pgload.yaml > default.
func resolveConnection(flags *connFlagValues, projectConfig *config.ProjectConfig) (*pgload.ConnectionConfig, error) {
	connString := flags.connection
	if connString == "" {
		connString = connectionStringFromEnv()
	}

	granularFlags := &db.GranularConnFlags{
		Host:     flags.host,
		Port:     flags.port,
		Username: flags.username,
		Database: flags.database,
		SSLMode:  flags.sslMode,
	}
	azureFlags := &db.AzureFlags{
		TenantID: flags.azureTenantID,
		ClientID: flags.azureClientID,
	}
	awsFlags := &db.AWSFlags{
		IAMAuth: flags.awsIAM,
		Region:  flags.awsRegion,
	}
	googleFlags := &db.GoogleFlags{
		Instance: flags.googleInstance,
	}

	return db.ResolveConnectionParams(
		connString,
		granularFlags,
		azureFlags,
		awsFlags,
		googleFlags,
		db.LoadFromEnvironment(),
		projectConfig,
	)
}
