package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/pgload/internal/resolve"
	"github.com/vvka-141/pgload/pkg/pgload"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644))
	return dir
}

func TestLoad_AllFields(t *testing.T) {
	dir := writeConfig(t, `project: exports

connection:
  env_var: DATABASE_URL_EXPORTS
  host: myhost
  port: 5433
  username: myuser
  database: mydb
  sslmode: require

defaults:
  file_pattern: "*.csv"
  schema: staging_in
  primary_key: [id]
  delimiter: ";"
  encoding: windows-1252

table_naming:
  strip_prefix: IxExp
  lowercase: true

tables:
  - file_pattern: "konto*.csv"
    target_table: konto
    primary_key: [konto_id, period]
    column_mapping:
      KontoNr: konto_id
    skip_rows: 1
    rebuild: true

options:
  workers: 4
  chunk_size: 5000
  file_timeout: 10m
  max_row_error_rate: 0.1
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "exports", cfg.Project)
	assert.Equal(t, "DATABASE_URL_EXPORTS", cfg.Connection.EnvVar)
	assert.Equal(t, "myhost", cfg.Connection.Host)
	assert.Equal(t, 5433, cfg.Connection.Port)
	assert.Equal(t, "require", cfg.Connection.SSLMode)

	require.NotNil(t, cfg.Defaults)
	assert.Equal(t, "*.csv", cfg.Defaults.FilePattern)
	assert.Equal(t, "staging_in", cfg.Defaults.Schema)
	assert.Equal(t, []string{"id"}, cfg.Defaults.PrimaryKey)
	assert.Equal(t, ";", cfg.Defaults.Delimiter)
	assert.Equal(t, "windows-1252", cfg.Defaults.Encoding)

	require.NotNil(t, cfg.TableNaming)
	assert.Equal(t, "IxExp", cfg.TableNaming.StripPrefix)
	assert.True(t, cfg.TableNaming.Lowercase)

	require.Len(t, cfg.Tables, 1)
	assert.Equal(t, "konto*.csv", cfg.Tables[0].FilePattern)
	assert.Equal(t, []string{"konto_id", "period"}, cfg.Tables[0].PrimaryKey)
	assert.Equal(t, "konto_id", cfg.Tables[0].ColumnMapping["KontoNr"])
	assert.Equal(t, 1, cfg.Tables[0].SkipRows)
	assert.True(t, cfg.Tables[0].Rebuild)

	assert.Equal(t, 4, cfg.Options.Workers)
	assert.Equal(t, 5000, cfg.Options.ChunkSize)
}

func TestLoad_TableNamingLowercaseDefaultsTrue(t *testing.T) {
	dir := writeConfig(t, `defaults:
  file_pattern: "*.csv"
  primary_key: [id]

table_naming:
  strip_prefix: IxExp
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	require.NotNil(t, cfg.TableNaming)
	assert.True(t, cfg.TableNaming.Lowercase, "omitting lowercase must keep derived names lowercase")

	spec, err := resolve.Resolve("IxExpKonto.csv", cfg.ToResolutionRules())
	require.NoError(t, err)
	require.NotNil(t, spec)
	assert.Equal(t, "konto", spec.TargetTable)
}

func TestLoad_TableNamingLowercaseFalseRespected(t *testing.T) {
	dir := writeConfig(t, `table_naming:
  strip_prefix: IxExp
  lowercase: false
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	require.NotNil(t, cfg.TableNaming)
	assert.False(t, cfg.TableNaming.Lowercase)
}

func TestLoad_DirectFilePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("project: p\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "p", cfg.Project)
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load(t.TempDir())
	assert.True(t, errors.Is(err, ErrConfigNotFound), "expected ErrConfigNotFound, got: %v", err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := writeConfig(t, "{{invalid")

	cfg, err := Load(dir)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_EmptyFile(t *testing.T) {
	dir := writeConfig(t, "")

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, ProjectConfig{}, *cfg)
}

func TestToResolutionRules(t *testing.T) {
	cfg := &ProjectConfig{
		Tables: []pgload.TableSpec{
			{FilePattern: "a*.csv", TargetTable: "a", PrimaryKey: []string{"id"}},
			{FilePattern: "b*.csv", TargetTable: "b", PrimaryKey: []string{"id"}},
		},
		Defaults:    &pgload.TableSpec{FilePattern: "*.csv", PrimaryKey: []string{"id"}},
		TableNaming: &pgload.NamingRules{Lowercase: true},
	}

	rules := cfg.ToResolutionRules()
	require.Len(t, rules.Explicit, 2)
	assert.Equal(t, "a*.csv", rules.Explicit[0].FilePattern)
	assert.Equal(t, cfg.Defaults, rules.Defaults)
	assert.Equal(t, cfg.TableNaming, rules.Naming)
}

func TestToImportOptions(t *testing.T) {
	cfg := &ProjectConfig{Options: OptionsConfig{
		Workers:     3,
		ChunkSize:   2000,
		FileTimeout: "90s",
	}}

	opts, err := cfg.ToImportOptions()
	require.NoError(t, err)
	assert.Equal(t, 3, opts.Workers)
	assert.Equal(t, 2000, opts.ChunkSize)
	assert.Equal(t, 90*time.Second, opts.FileTimeout)
}

func TestToImportOptions_InvalidTimeout(t *testing.T) {
	cfg := &ProjectConfig{Options: OptionsConfig{FileTimeout: "not-a-duration"}}

	_, err := cfg.ToImportOptions()
	assert.True(t, errors.Is(err, pgload.ErrInvalidConfig))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ProjectConfig
		wantErr bool
	}{
		{
			name: "valid explicit table",
			cfg: ProjectConfig{Tables: []pgload.TableSpec{
				{FilePattern: "a*.csv", TargetTable: "a", PrimaryKey: []string{"id"}},
			}},
		},
		{
			name: "explicit table without primary key",
			cfg: ProjectConfig{Tables: []pgload.TableSpec{
				{FilePattern: "a*.csv", TargetTable: "a"},
			}},
			wantErr: true,
		},
		{
			name:    "defaults without primary key",
			cfg:     ProjectConfig{Defaults: &pgload.TableSpec{FilePattern: "*.csv"}},
			wantErr: true,
		},
		{
			name: "defaults without target table is fine",
			cfg:  ProjectConfig{Defaults: &pgload.TableSpec{FilePattern: "*.csv", PrimaryKey: []string{"id"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
