package pgload

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// TableSpec describes how a single delimited file is imported into a target table.
//
// A spec is either declared explicitly in project configuration or synthesized
// from the project's defaults when a file is resolved in auto-discovery mode.
type TableSpec struct {
	// FilePattern is a glob pattern matched against the bare filename
	// (not the full path). `*` matches any run of characters, `?` matches
	// exactly one. Matching is case-insensitive.
	FilePattern string `yaml:"file_pattern" json:"file_pattern"`

	// TargetTable is the table the file's rows are merged into.
	TargetTable string `yaml:"target_table" json:"target_table"`

	// Schema is the target schema. Defaults to "public" when empty.
	Schema string `yaml:"schema,omitempty" json:"schema,omitempty"`

	// PrimaryKey lists the column(s) forming the upsert key, in order.
	// Every listed column must exist in the post-mapping column set.
	PrimaryKey []string `yaml:"primary_key" json:"primary_key"`

	// ColumnMapping renames source header columns to target columns.
	// Unmapped columns pass through unchanged.
	ColumnMapping map[string]string `yaml:"column_mapping,omitempty" json:"column_mapping,omitempty"`

	// Delimiter is the field separator, exactly one character. Defaults to ",".
	Delimiter string `yaml:"delimiter,omitempty" json:"delimiter,omitempty"`

	// Encoding is the source text codec (IANA name, e.g. "utf-8", "latin1",
	// "windows-1252"). Defaults to UTF-8.
	Encoding string `yaml:"encoding,omitempty" json:"encoding,omitempty"`

	// SkipRows is the number of raw records discarded before the header row.
	SkipRows int `yaml:"skip_rows,omitempty" json:"skip_rows,omitempty"`

	// Rebuild truncates the target table before loading. The table itself is
	// never dropped, so dependent views, triggers, and indexes survive.
	Rebuild bool `yaml:"rebuild,omitempty" json:"rebuild,omitempty"`
}

// SchemaName returns the effective target schema.
func (s *TableSpec) SchemaName() string {
	if s.Schema == "" {
		return "public"
	}
	return s.Schema
}

// DelimiterRune returns the effective field separator as a rune.
func (s *TableSpec) DelimiterRune() rune {
	if s.Delimiter == "" {
		return ','
	}
	r, _ := utf8.DecodeRuneInString(s.Delimiter)
	return r
}

// Validate checks the spec for structural problems. It returns a multi-error
// wrapping ErrInvalidConfig so callers can classify with errors.Is().
func (s *TableSpec) Validate() error {
	var errs []error

	if s.TargetTable == "" {
		errs = append(errs, fmt.Errorf("target_table is required: %w", ErrInvalidConfig))
	}
	if len(s.PrimaryKey) == 0 {
		errs = append(errs, fmt.Errorf("primary_key is required: %w", ErrInvalidConfig))
	}
	seen := make(map[string]bool, len(s.PrimaryKey))
	for _, col := range s.PrimaryKey {
		if col == "" {
			errs = append(errs, fmt.Errorf("primary_key contains an empty column name: %w", ErrInvalidConfig))
			continue
		}
		if seen[col] {
			errs = append(errs, fmt.Errorf("primary_key column %q listed twice: %w", col, ErrInvalidConfig))
		}
		seen[col] = true
	}
	if s.Delimiter != "" && utf8.RuneCountInString(s.Delimiter) != 1 {
		errs = append(errs, fmt.Errorf("delimiter must be a single character, got %q: %w", s.Delimiter, ErrInvalidConfig))
	}
	if s.SkipRows < 0 {
		errs = append(errs, fmt.Errorf("skip_rows cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// NamingRules derives a table name from a filename stem in auto-discovery mode.
type NamingRules struct {
	// StripPrefix is removed from the start of the stem when present
	// (case-insensitive comparison). A non-matching prefix is a no-op.
	StripPrefix string `yaml:"strip_prefix,omitempty" json:"strip_prefix,omitempty"`

	// StripSuffix is removed from the end of the stem when present
	// (case-insensitive comparison). A non-matching suffix is a no-op.
	StripSuffix string `yaml:"strip_suffix,omitempty" json:"strip_suffix,omitempty"`

	// Lowercase lowercases the derived name. Defaults to true in
	// project configuration.
	Lowercase bool `yaml:"lowercase" json:"lowercase"`
}

// UnmarshalYAML decodes a table_naming section with Lowercase defaulting to
// true, so omitting the key keeps derived table names lowercase.
func (r *NamingRules) UnmarshalYAML(value *yaml.Node) error {
	type plain NamingRules
	p := plain{Lowercase: true}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*r = NamingRules(p)
	return nil
}

// ResolutionRules drive filename-to-spec resolution for one project.
//
// Resolution order is fixed: the Explicit list is scanned in declaration order
// and the first pattern match wins. Only when no explicit entry matches is
// Defaults consulted, and only if the filename also matches
// Defaults.FilePattern. Otherwise the file resolves to "no match" and is
// skipped, which is not an error.
type ResolutionRules struct {
	// Explicit lists fully specified per-file mappings, highest priority first.
	Explicit []TableSpec `yaml:"tables,omitempty" json:"tables,omitempty"`

	// Defaults is a spec template for auto-discovery mode. Its FilePattern
	// acts as the inclusion filter; its TargetTable is ignored (the name is
	// derived via Naming).
	Defaults *TableSpec `yaml:"defaults,omitempty" json:"defaults,omitempty"`

	// Naming transforms the filename stem into a table name when a file is
	// resolved via Defaults. When nil, the lowercased stem is used as-is.
	Naming *NamingRules `yaml:"table_naming,omitempty" json:"table_naming,omitempty"`
}

// ImportOptions tune the import engine. The zero value is usable; unset
// fields fall back to the package defaults.
type ImportOptions struct {
	// ChunkSize is the number of rows buffered per bulk append. Bounds peak
	// memory to one chunk regardless of file size. Defaults to DefaultChunkSize.
	ChunkSize int

	// Workers bounds the number of files processed concurrently.
	// Defaults to 1 (sequential).
	Workers int

	// FileTimeout limits the processing time of a single file (load + merge).
	// Zero means no per-file timeout. Exceeding it fails that file only.
	FileTimeout time.Duration

	// MaxRowErrorRate is the fraction of malformed rows tolerated before the
	// whole file is failed. Checked only after RowErrorMinRows rows have been
	// read, so a bad row at the top of a small file does not trip the rate.
	// Defaults to DefaultMaxRowErrorRate.
	MaxRowErrorRate float64

	// RowErrorMinRows is the minimum number of rows read before
	// MaxRowErrorRate is enforced. Defaults to DefaultRowErrorMinRows.
	RowErrorMinRows int
}

// EffectiveChunkSize returns ChunkSize or the package default.
func (o ImportOptions) EffectiveChunkSize() int {
	if o.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return o.ChunkSize
}

// EffectiveWorkers returns Workers or 1.
func (o ImportOptions) EffectiveWorkers() int {
	if o.Workers <= 0 {
		return 1
	}
	return o.Workers
}

// EffectiveMaxRowErrorRate returns MaxRowErrorRate or the package default.
func (o ImportOptions) EffectiveMaxRowErrorRate() float64 {
	if o.MaxRowErrorRate <= 0 {
		return DefaultMaxRowErrorRate
	}
	return o.MaxRowErrorRate
}

// EffectiveRowErrorMinRows returns RowErrorMinRows or the package default.
func (o ImportOptions) EffectiveRowErrorMinRows() int {
	if o.RowErrorMinRows <= 0 {
		return DefaultRowErrorMinRows
	}
	return o.RowErrorMinRows
}

// ConnectionConfig holds the parameters needed to reach the target database.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// AWS IAM authentication parameters (used when AuthMethod is AuthMethodAWSIAM)
	AWSRegion string

	// Google Cloud SQL instance connection name, project:region:instance
	// (used when AuthMethod is AuthMethodGoogleIAM)
	GoogleInstance string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID).
	// If all three are provided, Service Principal authentication is used.
	// If none are provided, the DefaultAzureCredential chain is used.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}
