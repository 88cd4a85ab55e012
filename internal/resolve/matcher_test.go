package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		pattern  string
		want     bool
	}{
		{"exact match", "customers.csv", "customers.csv", true},
		{"case-insensitive", "Customers.CSV", "customers.csv", true},
		{"star prefix", "customers_2024.csv", "customers*.csv", true},
		{"star matches empty", "customers.csv", "customers*.csv", true},
		{"star alone", "anything.csv", "*", true},
		{"star extension", "export.csv", "*.csv", true},
		{"star mid-pattern", "konto_export_daily.csv", "konto*daily.csv", true},
		{"multiple stars", "abc_def_ghi.csv", "*def*.csv", true},
		{"question mark single char", "file1.csv", "file?.csv", true},
		{"question mark needs a char", "file.csv", "file?.csv", false},
		{"question mark two chars", "file12.csv", "file?.csv", false},
		{"whole-name match required", "customers.csv.bak", "*.csv", false},
		{"no partial prefix match", "mycustomers.csv", "customers*.csv", false},
		{"different extension", "customers.txt", "*.csv", false},
		{"empty pattern empty name", "", "", true},
		{"empty pattern nonempty name", "a.csv", "", false},
		{"star against empty name", "", "*", true},
		{"unicode filename", "Käufer.csv", "käufer.csv", true},
		{"bracket is a literal", "file[1].csv", "file[1].csv", true},
		{"unmatched bracket literal", "data[.csv", "data[.csv", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.filename, tt.pattern))
		})
	}
}
