package excel

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"pcadash/domain/insights"
	"pcadash/domain/tabular"
	apperrors "pcadash/internal/errors"
)

// nullMarkers are the spellings of a missing value written by common CSV producers.
var nullMarkers = map[string]bool{
	"":     true,
	"#N/A": true,
	"N/A":  true,
	"NA":   true,
	"NULL": true,
	"NaN":  true,
	"None": true,
	"n/a":  true,
	"nan":  true,
	"null": true,
	"NaT":  true,
}

// timestampLayouts are tried in order when parsing the Timestamp column.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999",
	time.DateTime,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
	"02/01/2006 15:04",
	"02/01/2006",
}

// LoadResults reads the PCA results file into a typed table.
func LoadResults(path string) (insights.ResultsTable, error) {
	t, err := ReadTable(path)
	if err != nil {
		return insights.ResultsTable{}, apperrors.Wrapf(err, "failed to load PCA results from %s", path)
	}
	return ResultsFromTable(t, path)
}

// ResultsFromTable converts a generic table into PCA part records. source names the
// table in error messages.
func ResultsFromTable(t tabular.Table, source string) (insights.ResultsTable, error) {
	for _, col := range insights.RequiredColumns {
		if !t.HasColumn(col) {
			return insights.ResultsTable{}, apperrors.MissingColumn(col, source)
		}
	}
	partIdx := t.ColumnIndex(insights.ColumnPartID)
	t2Idx := t.ColumnIndex(insights.ColumnT2)
	qIdx := t.ColumnIndex(insights.ColumnQ)
	rejectIdx := t.ColumnIndex(insights.ColumnRejectType)
	tsIdx := t.ColumnIndex(insights.ColumnTimestamp)

	out := insights.ResultsTable{
		Capabilities: insights.Capabilities{
			HasRejectType: rejectIdx >= 0,
			HasTimestamp:  tsIdx >= 0,
		},
		Records: make([]insights.PartRecord, 0, len(t.Rows)),
	}
	known := map[int]bool{partIdx: true, t2Idx: true, qIdx: true, rejectIdx: true, tsIdx: true}
	var extraIdx []int
	for i, name := range t.Columns {
		if !known[i] {
			extraIdx = append(extraIdx, i)
			out.ExtraColumns = append(out.ExtraColumns, name)
		}
	}

	for r, row := range t.Rows {
		line := r + 2 // header is line 1
		rec := insights.PartRecord{PartID: strings.TrimSpace(row[partIdx].Value)}
		if !row[partIdx].Valid || rec.PartID == "" {
			return insights.ResultsTable{}, apperrors.InvalidInput(fmt.Sprintf("%s line %d: %s is empty", source, line, insights.ColumnPartID))
		}

		var err error
		if rec.T2, err = parseStatistic(row[t2Idx]); err != nil {
			return insights.ResultsTable{}, apperrors.InvalidInput(fmt.Sprintf("%s line %d: %s: %v", source, line, insights.ColumnT2, err))
		}
		if rec.Q, err = parseStatistic(row[qIdx]); err != nil {
			return insights.ResultsTable{}, apperrors.InvalidInput(fmt.Sprintf("%s line %d: %s: %v", source, line, insights.ColumnQ, err))
		}
		if rejectIdx >= 0 {
			rec.RejectType = nullable(row[rejectIdx])
		}
		if tsIdx >= 0 {
			if raw := nullable(row[tsIdx]); raw != "" {
				if rec.Timestamp, err = ParseTimestamp(raw); err != nil {
					return insights.ResultsTable{}, apperrors.InvalidInput(fmt.Sprintf("%s line %d: %s: %v", source, line, insights.ColumnTimestamp, err))
				}
			}
		}
		if len(extraIdx) > 0 {
			rec.Extra = make(map[string]string, len(extraIdx))
			for k, j := range extraIdx {
				rec.Extra[out.ExtraColumns[k]] = row[j].Value
			}
		}
		out.Records = append(out.Records, rec)
	}
	return out, nil
}

func parseStatistic(c tabular.Cell) (float64, error) {
	raw := nullable(c)
	if raw == "" {
		return 0, fmt.Errorf("missing value")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	return v, nil
}

func nullable(c tabular.Cell) string {
	if !c.Valid {
		return ""
	}
	v := strings.TrimSpace(c.Value)
	if nullMarkers[v] {
		return ""
	}
	return v
}

// ParseTimestamp accepts the layouts produced by pandas and spreadsheet exports.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
}
