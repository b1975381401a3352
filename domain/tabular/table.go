// Package tabular provides the generic table used by the offline preprocessing
// pipeline, along with its cleaning and scaling steps.
package tabular

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownColumn = errors.New("unknown column")
	ErrNonNumeric    = errors.New("non-numeric value")
	ErrZeroVariance  = errors.New("zero variance")
	ErrTooFewRows    = errors.New("too few rows")
	ErrRaggedRow     = errors.New("row width does not match header")
)

// Cell is a single value; Valid is false for a missing value.
type Cell struct {
	Value string
	Valid bool
}

// Null is the missing value.
var Null = Cell{}

// Str returns a present cell.
func Str(v string) Cell {
	return Cell{Value: v, Valid: true}
}

// Table is a header plus rows of cells.
type Table struct {
	Columns []string
	Rows    [][]Cell
}

// NewTable builds a table from raw string records, treating empty strings as missing.
func NewTable(header []string, records [][]string) (Table, error) {
	t := Table{
		Columns: append([]string(nil), header...),
		Rows:    make([][]Cell, len(records)),
	}
	for i, rec := range records {
		if len(rec) != len(header) {
			return Table{}, fmt.Errorf("%w: row %d has %d fields, header has %d", ErrRaggedRow, i+1, len(rec), len(header))
		}
		row := make([]Cell, len(rec))
		for j, v := range rec {
			if v == "" {
				row[j] = Null
			} else {
				row[j] = Str(v)
			}
		}
		t.Rows[i] = row
	}
	return t, nil
}

// ColumnIndex returns the position of name, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether name is a column.
func (t Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Clone deep-copies the table.
func (t Table) Clone() Table {
	out := Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]Cell, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]Cell(nil), row...)
	}
	return out
}

// Records renders the table back to strings, missing values as "".
func (t Table) Records() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rec := make([]string, len(row))
		for j, c := range row {
			if c.Valid {
				rec[j] = c.Value
			}
		}
		out[i] = rec
	}
	return out
}

// MissingCount returns the number of missing cells per column.
func (t Table) MissingCount() map[string]int {
	counts := make(map[string]int, len(t.Columns))
	for _, name := range t.Columns {
		counts[name] = 0
	}
	for _, row := range t.Rows {
		for j, c := range row {
			if !c.Valid {
				counts[t.Columns[j]]++
			}
		}
	}
	return counts
}
