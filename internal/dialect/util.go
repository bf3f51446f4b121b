package dialect

import (
	"strings"
)

// GeneratePlaceholders creates a comma-separated list of count placeholders.
// offset is the zero-based index of the first placeholder, so callers can
// number the tuples of a multi-row VALUES list continuously.
func GeneratePlaceholders(count, offset int, placeholderFunc func(int) string) string {
	placeholders := make([]string, count)
	for i := 0; i < count; i++ {
		placeholders[i] = placeholderFunc(offset + i)
	}
	return strings.Join(placeholders, ", ")
}

// QuoteAll applies quote to every name and joins the results with ", ".
func QuoteAll(names []string, quote func(string) string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quote(n)
	}
	return strings.Join(quoted, ", ")
}

// RowsPerStatement returns how many rows of width cols fit in one statement
// without exceeding maxParams bind parameters. It never returns less than 1.
func RowsPerStatement(cols, maxParams int) int {
	if cols <= 0 || maxParams <= 0 {
		return 1
	}
	n := maxParams / cols
	if n < 1 {
		return 1
	}
	return n
}
