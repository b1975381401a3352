package tabular

import (
	"regexp"
	"strings"
)

var separatorRun = regexp.MustCompile(`[ \-]+`)

// CleanColumnName trims a label and replaces runs of spaces and hyphens with a
// single underscore.
func CleanColumnName(name string) string {
	return separatorRun.ReplaceAllString(strings.TrimSpace(name), "_")
}

// CleanColumnNames returns a copy of t with standardised labels. Applying it
// twice gives the same labels as applying it once.
func CleanColumnNames(t Table) Table {
	out := t.Clone()
	for i, name := range out.Columns {
		out.Columns[i] = CleanColumnName(name)
	}
	return out
}

// HandleMissingValues forward-fills each column from the preceding row, then
// back-fills leading gaps from the following row.
//
// A column with no values at all stays entirely missing.
func HandleMissingValues(t Table) Table {
	out := t.Clone()
	for col := range out.Columns {
		var last Cell
		for _, row := range out.Rows {
			if row[col].Valid {
				last = row[col]
			} else if last.Valid {
				row[col] = last
			}
		}
		var next Cell
		for i := len(out.Rows) - 1; i >= 0; i-- {
			row := out.Rows[i]
			if row[col].Valid {
				next = row[col]
			} else if next.Valid {
				row[col] = next
			}
		}
	}
	return out
}
