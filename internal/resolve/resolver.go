package resolve

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vvka-141/pgload/pkg/pgload"
)

// Resolve finds the table specification for a file name.
//
// Resolution order:
//  1. The explicit table list, scanned in declaration order; the first
//     matching pattern wins and later entries are not consulted.
//  2. The defaults section, if present and its file_pattern matches; a spec
//     is synthesized from the defaults with the target table derived from
//     the file name via the naming rules.
//
// A file matching neither returns (nil, nil): the caller skips it. filename
// must be a bare name, not a path.
func Resolve(filename string, rules *pgload.ResolutionRules) (*pgload.TableSpec, error) {
	if rules == nil {
		return nil, nil
	}

	for i := range rules.Explicit {
		if Match(filename, rules.Explicit[i].FilePattern) {
			return &rules.Explicit[i], nil
		}
	}

	if rules.Defaults != nil && Match(filename, rules.Defaults.FilePattern) {
		return synthesizeFromDefaults(filename, rules)
	}

	return nil, nil
}

// synthesizeFromDefaults builds a per-file spec from the defaults section.
// The defaults entry itself is never handed out: each file gets its own copy
// with its own pattern and derived target table.
func synthesizeFromDefaults(filename string, rules *pgload.ResolutionRules) (*pgload.TableSpec, error) {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))

	var table string
	if rules.Naming != nil {
		table = Transform(stem, rules.Naming.StripPrefix, rules.Naming.StripSuffix, rules.Naming.Lowercase)
	} else {
		table = strings.ToLower(stem)
	}

	if table == "" {
		return nil, fmt.Errorf("file %q: naming rules produce an empty table name: %w",
			filename, pgload.ErrInvalidConfig)
	}

	spec := *rules.Defaults
	spec.FilePattern = filename
	spec.TargetTable = table
	return &spec, nil
}
