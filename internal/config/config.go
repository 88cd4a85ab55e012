package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/pgload/pkg/pgload"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ConnectionConfig is the connection section of the project YAML.
//
// EnvVar names an environment variable holding a full connection string,
// so one project file can serve many targets without embedding credentials.
// Granular fields are fallbacks when neither EnvVar nor CLI flags resolve
// a connection.
type ConnectionConfig struct {
	EnvVar         string `yaml:"env_var,omitempty"`
	Host           string `yaml:"host,omitempty"`
	Port           int    `yaml:"port,omitempty"`
	Username       string `yaml:"username,omitempty"`
	Database       string `yaml:"database,omitempty"`
	SSLMode        string `yaml:"sslmode,omitempty"`
	AuthMethod     string `yaml:"auth_method,omitempty"`
	AzureTenantID  string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string `yaml:"azure_client_id,omitempty"`
	AWSRegion      string `yaml:"aws_region,omitempty"`
	GoogleInstance string `yaml:"google_instance,omitempty"`
}

// OptionsConfig is the options section of the project YAML.
// Only fields set explicitly override the engine defaults.
type OptionsConfig struct {
	Workers         int     `yaml:"workers,omitempty"`
	ChunkSize       int     `yaml:"chunk_size,omitempty"`
	FileTimeout     string  `yaml:"file_timeout,omitempty"`
	MaxRowErrorRate float64 `yaml:"max_row_error_rate,omitempty"`
	RowErrorMinRows int     `yaml:"row_error_min_rows,omitempty"`
}

// ProjectConfig is the top-level project YAML document.
type ProjectConfig struct {
	Project     string              `yaml:"project,omitempty"`
	Connection  ConnectionConfig    `yaml:"connection,omitempty"`
	Defaults    *pgload.TableSpec   `yaml:"defaults,omitempty"`
	TableNaming *pgload.NamingRules `yaml:"table_naming,omitempty"`
	Tables      []pgload.TableSpec  `yaml:"tables,omitempty"`
	Options     OptionsConfig       `yaml:"options,omitempty"`
}

const ConfigFileName = "pgload.yaml"

// Load reads and parses the project config from sourcePath.
// sourcePath may be the config file itself or a directory containing
// a file named ConfigFileName.
func Load(sourcePath string) (*ProjectConfig, error) {
	configPath := sourcePath
	if info, err := os.Stat(sourcePath); err == nil && info.IsDir() {
		configPath = filepath.Join(sourcePath, ConfigFileName)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ToResolutionRules converts the YAML table sections into the rules the
// resolver consumes. Explicit table specs are kept in declaration order
// because resolution is first-match-wins.
func (c *ProjectConfig) ToResolutionRules() *pgload.ResolutionRules {
	return &pgload.ResolutionRules{
		Explicit: c.Tables,
		Defaults: c.Defaults,
		Naming:   c.TableNaming,
	}
}

// ToImportOptions converts the options section into engine options.
// An invalid file_timeout duration is an error rather than a silent default.
func (c *ProjectConfig) ToImportOptions() (pgload.ImportOptions, error) {
	opts := pgload.ImportOptions{
		Workers:         c.Options.Workers,
		ChunkSize:       c.Options.ChunkSize,
		MaxRowErrorRate: c.Options.MaxRowErrorRate,
		RowErrorMinRows: c.Options.RowErrorMinRows,
	}
	if c.Options.FileTimeout != "" {
		d, err := time.ParseDuration(c.Options.FileTimeout)
		if err != nil {
			return opts, fmt.Errorf("invalid options.file_timeout %q: %w", c.Options.FileTimeout, pgload.ErrInvalidConfig)
		}
		opts.FileTimeout = d
	}
	return opts, nil
}

// Validate checks every explicit table spec plus the defaults spec.
// Defaults may omit file_pattern and target_table (the resolver derives the
// target from the file name), so only its structural fields are checked here.
func (c *ProjectConfig) Validate() error {
	var errs []error
	for i := range c.Tables {
		if err := c.Tables[i].Validate(); err != nil {
			errs = append(errs, fmt.Errorf("tables[%d]: %w", i, err))
		}
	}
	if c.Defaults != nil {
		if len(c.Defaults.PrimaryKey) == 0 {
			errs = append(errs, fmt.Errorf("defaults: primary_key is required: %w", pgload.ErrInvalidConfig))
		}
	}
	return errors.Join(errs...)
}
