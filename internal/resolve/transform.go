package resolve

import "strings"

// Transform derives a table name from a file name stem.
//
// The prefix and suffix comparisons are case-insensitive; a prefix or suffix
// that does not match is simply not stripped. Stripping happens before the
// optional lowercasing, so mixed-case prefixes are removed by length.
func Transform(stem, stripPrefix, stripSuffix string, lowercase bool) string {
	name := stem

	if stripPrefix != "" && strings.HasPrefix(strings.ToLower(name), strings.ToLower(stripPrefix)) {
		name = name[len(stripPrefix):]
	}

	if stripSuffix != "" && strings.HasSuffix(strings.ToLower(name), strings.ToLower(stripSuffix)) {
		name = name[:len(name)-len(stripSuffix)]
	}

	if lowercase {
		name = strings.ToLower(name)
	}

	return name
}
