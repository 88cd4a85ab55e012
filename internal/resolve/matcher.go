// Package resolve maps input file names to table specifications.
//
// Resolution is driven by glob-style file patterns: explicit table entries
// are consulted first in declaration order, then the defaults section, and
// a file matching neither is skipped rather than failed.
package resolve

import "strings"

// Match reports whether filename matches the glob pattern.
//
// Supported wildcards: '*' matches any run of characters including the empty
// run, '?' matches exactly one character. Matching is case-insensitive and
// always covers the whole name. The function is total: any pattern either
// matches or it does not, there is no error case.
func Match(filename, pattern string) bool {
	return matchFold(strings.ToLower(filename), strings.ToLower(pattern))
}

// matchFold runs a backtracking wildcard match over already-lowercased
// strings. Only the most recent '*' needs to be remembered: if a later
// mismatch occurs, the star absorbs one more character and matching resumes.
func matchFold(name, pattern string) bool {
	var (
		n, p         int
		starP        = -1
		starN        int
		nameRunes    = []rune(name)
		patternRunes = []rune(pattern)
		nameLen      = len(nameRunes)
		patternLen   = len(patternRunes)
	)

	for n < nameLen {
		switch {
		case p < patternLen && patternRunes[p] == '*':
			starP = p
			starN = n
			p++
		case p < patternLen && (patternRunes[p] == '?' || patternRunes[p] == nameRunes[n]):
			p++
			n++
		case starP >= 0:
			starN++
			n = starN
			p = starP + 1
		default:
			return false
		}
	}

	for p < patternLen && patternRunes[p] == '*' {
		p++
	}
	return p == patternLen
}
