package resolve

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/pgload/pkg/pgload"
)

func TestResolve_ExplicitFirstMatchWins(t *testing.T) {
	rules := &pgload.ResolutionRules{
		Explicit: []pgload.TableSpec{
			{FilePattern: "customers*.csv", TargetTable: "customers", PrimaryKey: []string{"customer_id"}},
			{FilePattern: "*.csv", TargetTable: "catchall", PrimaryKey: []string{"id"}},
		},
	}

	spec, err := Resolve("customers_2024.csv", rules)
	require.NoError(t, err)
	require.NotNil(t, spec)
	assert.Equal(t, "customers", spec.TargetTable)

	spec, err = Resolve("orders.csv", rules)
	require.NoError(t, err)
	require.NotNil(t, spec)
	assert.Equal(t, "catchall", spec.TargetTable)
}

func TestResolve_ExplicitBeatsDefaults(t *testing.T) {
	rules := &pgload.ResolutionRules{
		Explicit: []pgload.TableSpec{
			{FilePattern: "konto*.csv", TargetTable: "konto_explicit", PrimaryKey: []string{"id"}},
		},
		Defaults: &pgload.TableSpec{FilePattern: "*.csv", PrimaryKey: []string{"id"}},
	}

	spec, err := Resolve("konto.csv", rules)
	require.NoError(t, err)
	require.NotNil(t, spec)
	assert.Equal(t, "konto_explicit", spec.TargetTable)
}

func TestResolve_DefaultsSynthesizesSpec(t *testing.T) {
	rules := &pgload.ResolutionRules{
		Defaults: &pgload.TableSpec{
			FilePattern: "IxExp*.csv",
			Schema:      "imports",
			PrimaryKey:  []string{"id"},
			Delimiter:   ";",
			Encoding:    "windows-1252",
			SkipRows:    1,
			Rebuild:     true,
		},
		Naming: &pgload.NamingRules{StripPrefix: "IxExp", Lowercase: true},
	}

	spec, err := Resolve("IxExpKonto.csv", rules)
	require.NoError(t, err)
	require.NotNil(t, spec)

	assert.Equal(t, "konto", spec.TargetTable)
	assert.Equal(t, "IxExpKonto.csv", spec.FilePattern)
	assert.Equal(t, "imports", spec.Schema)
	assert.Equal(t, []string{"id"}, spec.PrimaryKey)
	assert.Equal(t, ";", spec.Delimiter)
	assert.Equal(t, "windows-1252", spec.Encoding)
	assert.Equal(t, 1, spec.SkipRows)
	assert.True(t, spec.Rebuild)

	// The defaults entry itself must stay untouched.
	assert.Equal(t, "IxExp*.csv", rules.Defaults.FilePattern)
	assert.Equal(t, "", rules.Defaults.TargetTable)
}

func TestResolve_DefaultsWithoutNamingLowercasesStem(t *testing.T) {
	rules := &pgload.ResolutionRules{
		Defaults: &pgload.TableSpec{FilePattern: "*.csv", PrimaryKey: []string{"id"}},
	}

	spec, err := Resolve("Mieter.csv", rules)
	require.NoError(t, err)
	require.NotNil(t, spec)
	assert.Equal(t, "mieter", spec.TargetTable)
}

func TestResolve_DefaultsPatternFiltersFiles(t *testing.T) {
	rules := &pgload.ResolutionRules{
		Defaults: &pgload.TableSpec{FilePattern: "IxExp*.csv", PrimaryKey: []string{"id"}},
	}

	spec, err := Resolve("unrelated.csv", rules)
	require.NoError(t, err)
	assert.Nil(t, spec, "file outside the defaults pattern is skipped")
}

func TestResolve_NoMatchIsNotAnError(t *testing.T) {
	rules := &pgload.ResolutionRules{
		Explicit: []pgload.TableSpec{
			{FilePattern: "customers*.csv", TargetTable: "customers", PrimaryKey: []string{"id"}},
		},
	}

	spec, err := Resolve("readme.txt", rules)
	require.NoError(t, err)
	assert.Nil(t, spec)
}

func TestResolve_EmptyDerivedNameIsConfigError(t *testing.T) {
	rules := &pgload.ResolutionRules{
		Defaults: &pgload.TableSpec{FilePattern: "*.csv", PrimaryKey: []string{"id"}},
		Naming:   &pgload.NamingRules{StripPrefix: "IxExp", Lowercase: true},
	}

	spec, err := Resolve("IxExp.csv", rules)
	assert.Nil(t, spec)
	assert.True(t, errors.Is(err, pgload.ErrInvalidConfig), "got: %v", err)
}

func TestResolve_NilRules(t *testing.T) {
	spec, err := Resolve("file.csv", nil)
	require.NoError(t, err)
	assert.Nil(t, spec)
}
