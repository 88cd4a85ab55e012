package schema

import "strings"

// QuoteIdent quotes a PostgreSQL identifier, doubling embedded quotes.
// Column and table names come from file headers and user config, so they
// are always quoted rather than validated against a safe-name pattern.
func QuoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// QuoteIdentList quotes each identifier and joins them with commas.
func QuoteIdentList(idents []string) string {
	quoted := make([]string, len(idents))
	for i, ident := range idents {
		quoted[i] = QuoteIdent(ident)
	}
	return strings.Join(quoted, ", ")
}
