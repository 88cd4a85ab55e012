package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/vvka-141/pgload/internal/config"
	"github.com/vvka-141/pgload/pkg/pgload"
)

// GranularConnFlags represents connection parameters from CLI flags.
// These follow PostgreSQL standard flag conventions (-h, -p, -U, -d).
//
// Note: Password is NOT included as a CLI flag for security reasons.
// Use one of these methods instead:
//  1. $PGPASSWORD environment variable
//  2. .pgpass file (PostgreSQL standard)
//  3. Connection string with embedded password
type GranularConnFlags struct {
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
}

// IsEmpty returns true if no connection-related granular flags were provided by the user.
// Note: Database flag is excluded from this check because it can be used to override
// the database specified in a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g == nil || (g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == "")
}

// AzureFlags represents Azure Entra ID CLI flags.
// These override the corresponding AZURE_* environment variables.
// Note: Client secret is NOT included as a CLI flag for security reasons.
// Use AZURE_CLIENT_SECRET environment variable instead.
type AzureFlags struct {
	TenantID string // Overrides AZURE_TENANT_ID
	ClientID string // Overrides AZURE_CLIENT_ID
}

// IsEmpty returns true if no Azure flags were provided.
func (a *AzureFlags) IsEmpty() bool {
	return a == nil || (a.TenantID == "" && a.ClientID == "")
}

// AWSFlags represents AWS RDS IAM CLI flags.
type AWSFlags struct {
	IAMAuth bool   // Enables AWS IAM database authentication
	Region  string // Overrides $AWS_REGION
}

// IsEmpty returns true if no AWS flags were provided.
func (a *AWSFlags) IsEmpty() bool {
	return a == nil || (!a.IAMAuth && a.Region == "")
}

// GoogleFlags represents Google Cloud SQL IAM CLI flags.
type GoogleFlags struct {
	Instance string // Instance connection name: project:region:instance
}

// IsEmpty returns true if no Google flags were provided.
func (g *GoogleFlags) IsEmpty() bool {
	return g == nil || g.Instance == ""
}

// EnvVars represents PostgreSQL standard environment variables.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	PGHOST       string // PostgreSQL server host
	PGPORT       string // PostgreSQL server port
	PGUSER       string // PostgreSQL username
	PGPASSWORD   string // PostgreSQL password (discouraged, use .pgpass instead)
	PGDATABASE   string // Default database name
	PGSSLMODE    string // SSL mode
	DATABASE_URL string // Full connection string (Heroku/Rails convention)

	// Cloud provider environment variables (SDK standard names)
	AZURE_TENANT_ID     string // Azure AD tenant/directory ID
	AZURE_CLIENT_ID     string // Azure AD application/client ID
	AZURE_CLIENT_SECRET string // Azure AD client secret (for Service Principal auth)
	AWS_REGION          string // AWS region for RDS IAM tokens
}

// LoadFromEnvironment loads PostgreSQL and cloud provider environment variables.
// This follows standard PostgreSQL client behavior and cloud SDK conventions.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHOST:              os.Getenv("PGHOST"),
		PGPORT:              os.Getenv("PGPORT"),
		PGUSER:              os.Getenv("PGUSER"),
		PGPASSWORD:          os.Getenv("PGPASSWORD"),
		PGDATABASE:          os.Getenv("PGDATABASE"),
		PGSSLMODE:           os.Getenv("PGSSLMODE"),
		DATABASE_URL:        os.Getenv("DATABASE_URL"),
		AZURE_TENANT_ID:     os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:     os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET: os.Getenv("AZURE_CLIENT_SECRET"),
		AWS_REGION:          os.Getenv("AWS_REGION"),
	}
}

// HasAzureCredentials returns true if Azure Entra ID environment variables are set.
func (e *EnvVars) HasAzureCredentials() bool {
	return e.AZURE_TENANT_ID != "" || e.AZURE_CLIENT_ID != ""
}

// ResolveConnectionParams resolves connection parameters using PostgreSQL-standard precedence:
//
//  1. Connection string flag (--connection) - if provided, parse and use directly
//  2. Granular flags (-h, -p, -U, -d) - if any provided, build config from flags
//  3. Environment variables (PGHOST, PGPORT, etc.) - fallback if no flags
//  4. DATABASE_URL environment variable - fallback if no granular params
//  5. Project configuration (connection section of the project YAML)
//  6. Defaults (localhost:5432, prefer SSL)
//
// Cloud IAM authentication:
// If Azure, AWS, or Google flags are provided (or the matching environment
// variables are set for Azure), the AuthMethod switches accordingly and the
// credentials are attached to the config. CLI flags take precedence over
// environment variables.
//
// Conflict Detection:
// Returns error if BOTH --connection flag AND granular flags are provided.
// This prevents ambiguity and ensures clear user intent.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	azureFlags *AzureFlags,
	awsFlags *AWSFlags,
	googleFlags *GoogleFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*pgload.ConnectionConfig, error) {
	// Validate inputs
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if azureFlags == nil {
		azureFlags = &AzureFlags{}
	}
	if awsFlags == nil {
		awsFlags = &AWSFlags{}
	}
	if googleFlags == nil {
		googleFlags = &GoogleFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}

	// Check for conflicts: connection string XOR granular flags
	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, fmt.Errorf(
			"cannot specify both --connection and granular flags (-h, -p, -U)\n" +
				"Choose one approach:\n" +
				"  1. Connection string: --connection \"postgresql://user@localhost:5432/postgres\"\n" +
				"  2. Granular flags: -h localhost -p 5432 -U myuser -d mydb\n" +
				"  3. Environment variables: export PGHOST=localhost PGPORT=5432 PGUSER=myuser",
		)
	}

	connString := connStringFlag
	if connString == "" && projectConfig != nil && projectConfig.Connection.EnvVar != "" {
		// Project config may indirect through a named environment variable,
		// e.g. DATABASE_URL_CUSTOMER_ABC, so one binary can serve many targets.
		connString = os.Getenv(projectConfig.Connection.EnvVar)
		if connString == "" {
			return nil, fmt.Errorf("project connection env var $%s is not set: %w",
				projectConfig.Connection.EnvVar, pgload.ErrInvalidConfig)
		}
	}

	var cfg *pgload.ConnectionConfig
	var err error

	switch {
	case connString != "":
		cfg, err = resolveFromConnectionString(connString, envVars)
	case granularFlags.IsEmpty() && envVars.DATABASE_URL != "":
		cfg, err = resolveFromConnectionString(envVars.DATABASE_URL, envVars)
	default:
		cfg, err = resolveFromGranularParams(granularFlags, envVars, projectConfig)
	}
	if err != nil {
		return nil, err
	}

	applyAzureAuth(cfg, azureFlags, envVars)
	applyAWSAuth(cfg, awsFlags, envVars)
	applyGoogleAuth(cfg, googleFlags)

	return cfg, nil
}

// applyAzureAuth sets Azure Entra ID authentication on the config if credentials are available.
// CLI flags take precedence over environment variables.
func applyAzureAuth(cfg *pgload.ConnectionConfig, flags *AzureFlags, env *EnvVars) {
	tenantID := flags.TenantID
	if tenantID == "" {
		tenantID = env.AZURE_TENANT_ID
	}

	clientID := flags.ClientID
	if clientID == "" {
		clientID = env.AZURE_CLIENT_ID
	}

	// Client secret only comes from env var (no flag for security)
	clientSecret := env.AZURE_CLIENT_SECRET

	if tenantID != "" || clientID != "" {
		cfg.AuthMethod = pgload.AuthMethodAzureEntraID
		cfg.AzureTenantID = tenantID
		cfg.AzureClientID = clientID
		cfg.AzureClientSecret = clientSecret
	}
}

// applyAWSAuth switches to AWS IAM authentication when requested via flags.
// Unlike Azure, the presence of $AWS_REGION alone does not opt in; the flag is
// explicit because AWS credentials are commonly present for unrelated reasons.
func applyAWSAuth(cfg *pgload.ConnectionConfig, flags *AWSFlags, env *EnvVars) {
	if !flags.IAMAuth {
		return
	}
	cfg.AuthMethod = pgload.AuthMethodAWSIAM
	cfg.AWSRegion = flags.Region
	if cfg.AWSRegion == "" {
		cfg.AWSRegion = env.AWS_REGION
	}
}

// applyGoogleAuth switches to Google Cloud SQL IAM authentication when an
// instance connection name is provided.
func applyGoogleAuth(cfg *pgload.ConnectionConfig, flags *GoogleFlags) {
	if flags.Instance == "" {
		return
	}
	cfg.AuthMethod = pgload.AuthMethodGoogleIAM
	cfg.GoogleInstance = flags.Instance
}

// resolveFromConnectionString parses a connection string into a ConnectionConfig.
//
// Environment variables are applied as fallbacks for parameters not specified
// in the connection string (following PostgreSQL standard behavior).
func resolveFromConnectionString(connStr string, envVars *EnvVars) (*pgload.ConnectionConfig, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}

	// Apply PGSSLMODE from environment if not specified in connection string.
	// This follows PostgreSQL's libpq behavior where environment variables
	// serve as fallbacks for connection string parameters.
	if cfg.SSLMode == "" && envVars != nil && envVars.PGSSLMODE != "" {
		cfg.SSLMode = envVars.PGSSLMODE
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "prefer"
	}

	return cfg, nil
}

// resolveFromGranularParams builds ConnectionConfig from granular flags and environment variables.
//
// Precedence for each parameter (following PostgreSQL standards):
//  1. CLI flag (highest priority)
//  2. Environment variable
//  3. Project configuration
//  4. Default value (lowest priority)
func resolveFromGranularParams(
	flags *GranularConnFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*pgload.ConnectionConfig, error) {
	cfg := &pgload.ConnectionConfig{
		AuthMethod:       pgload.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
	}

	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	// Host: flag > PGHOST > project yaml > default
	cfg.Host = flags.Host
	if cfg.Host == "" {
		cfg.Host = envVars.PGHOST
	}
	if cfg.Host == "" {
		cfg.Host = pc.Host
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}

	// Port: flag > PGPORT > project yaml > default
	if flags.Port != 0 {
		cfg.Port = flags.Port
	} else if envVars.PGPORT != "" {
		port, err := strconv.Atoi(envVars.PGPORT)
		if err != nil {
			return nil, fmt.Errorf("invalid $PGPORT value '%s': must be an integer", envVars.PGPORT)
		}
		cfg.Port = port
	} else if pc.Port != 0 {
		cfg.Port = pc.Port
	} else {
		cfg.Port = 5432
	}

	// Username: flag > PGUSER > project yaml > current OS user
	cfg.Username = flags.Username
	if cfg.Username == "" {
		cfg.Username = envVars.PGUSER
	}
	if cfg.Username == "" {
		cfg.Username = pc.Username
	}
	if cfg.Username == "" {
		if currentUser := os.Getenv("USER"); currentUser != "" {
			cfg.Username = currentUser
		} else if currentUser := os.Getenv("USERNAME"); currentUser != "" {
			cfg.Username = currentUser
		}
	}

	cfg.Password = envVars.PGPASSWORD

	// Database: flag > PGDATABASE > project yaml
	cfg.Database = flags.Database
	if cfg.Database == "" {
		cfg.Database = envVars.PGDATABASE
	}
	if cfg.Database == "" {
		cfg.Database = pc.Database
	}

	// SSLMode: flag > PGSSLMODE > project yaml > default
	cfg.SSLMode = flags.SSLMode
	if cfg.SSLMode == "" {
		cfg.SSLMode = envVars.PGSSLMODE
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = pc.SSLMode
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "prefer"
	}

	return cfg, nil
}
