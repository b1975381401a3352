// Package profiling describes the columns of the processed dataset for the data explorer.
package profiling

import (
	"strconv"

	"github.com/montanaflynn/stats"

	"pcadash/domain/tabular"
)

// ColumnProfile describes one column. Distribution is set only when every
// present value parses as a number.
type ColumnProfile struct {
	Name         string        `json:"name"`
	Count        int           `json:"count"`
	Missing      int           `json:"missing"`
	Distinct     int           `json:"distinct"`
	Distribution *Distribution `json:"distribution,omitempty"`
}

// Numeric reports whether the column was profiled as a number
func (p ColumnProfile) Numeric() bool {
	return p.Distribution != nil
}

// ProfileTable profiles every column of t in column order
func ProfileTable(t tabular.Table) []ColumnProfile {
	profiles := make([]ColumnProfile, len(t.Columns))
	for j := range t.Columns {
		profiles[j] = ProfileColumn(t, j)
	}
	return profiles
}

// ProfileColumn profiles column j of t
func ProfileColumn(t tabular.Table, j int) ColumnProfile {
	p := ColumnProfile{Name: t.Columns[j]}

	seen := make(map[string]struct{})
	values := make(stats.Float64Data, 0, len(t.Rows))
	numeric := true
	for _, row := range t.Rows {
		c := row[j]
		if !c.Valid {
			p.Missing++
			continue
		}
		p.Count++
		seen[c.Value] = struct{}{}
		if !numeric {
			continue
		}
		v, err := strconv.ParseFloat(c.Value, 64)
		if err != nil {
			numeric = false
			continue
		}
		values = append(values, v)
	}
	p.Distinct = len(seen)

	if numeric && len(values) > 0 {
		if d, err := AnalyzeDistribution(values); err == nil {
			p.Distribution = &d
		}
	}
	return p
}
