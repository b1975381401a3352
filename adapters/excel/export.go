package excel

import (
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"pcadash/domain/insights"
	apperrors "pcadash/internal/errors"
)

const insightsSheet = "PCA Insights"

// FlaggedHeader returns the column order used when rendering or exporting a flagged view.
func FlaggedHeader(caps insights.Capabilities, extra []string) []string {
	header := []string{insights.ColumnPartID}
	if caps.HasTimestamp {
		header = append(header, insights.ColumnTimestamp)
	}
	header = append(header, insights.ColumnT2, insights.ColumnQ)
	if caps.HasRejectType {
		header = append(header, insights.ColumnRejectType)
	}
	header = append(header, extra...)
	return append(header, "T2_Flag", "Q_Flag", "Anomaly")
}

// ExportFlagged writes the flagged view as a workbook; anomalous rows are highlighted.
func ExportFlagged(w io.Writer, rows []insights.FlaggedRecord, caps insights.Capabilities, extra []string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(defaultSheet, insightsSheet); err != nil {
		return apperrors.Wrap(err, "failed to name sheet")
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return apperrors.Wrap(err, "failed to create header style")
	}
	anomalyStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F8D7DA"}},
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to create anomaly style")
	}

	header := FlaggedHeader(caps, extra)
	if err := f.SetSheetRow(insightsSheet, "A1", &header); err != nil {
		return apperrors.Wrap(err, "failed to write header")
	}
	last := sheetColumn(len(header) - 1)
	if err := f.SetCellStyle(insightsSheet, "A1", last+"1", headerStyle); err != nil {
		return apperrors.Wrap(err, "failed to style header")
	}

	for i, rec := range rows {
		rowNum := i + 2
		values := flaggedValues(rec, caps, extra)
		cell, _ := excelize.CoordinatesToCellName(1, rowNum)
		if err := f.SetSheetRow(insightsSheet, cell, &values); err != nil {
			return apperrors.Wrapf(err, "failed to write row %d", rowNum)
		}
		if rec.Anomaly {
			end, _ := excelize.CoordinatesToCellName(len(header), rowNum)
			if err := f.SetCellStyle(insightsSheet, cell, end, anomalyStyle); err != nil {
				return apperrors.Wrapf(err, "failed to style row %d", rowNum)
			}
		}
	}
	if err := f.SetColWidth(insightsSheet, "A", last, 14); err != nil {
		return apperrors.Wrap(err, "failed to size columns")
	}

	if _, err := f.WriteTo(w); err != nil {
		return apperrors.Wrap(err, "failed to write workbook")
	}
	return nil
}

func flaggedValues(rec insights.FlaggedRecord, caps insights.Capabilities, extra []string) []interface{} {
	values := []interface{}{rec.PartID}
	if caps.HasTimestamp {
		if rec.HasTimestamp() {
			values = append(values, rec.Timestamp.Format(time.DateTime))
		} else {
			values = append(values, "")
		}
	}
	values = append(values, rec.T2, rec.Q)
	if caps.HasRejectType {
		values = append(values, rec.RejectType)
	}
	for _, col := range extra {
		values = append(values, rec.Extra[col])
	}
	return append(values, rec.T2Flag, rec.QFlag, rec.Anomaly)
}

// FlaggedStrings formats one flagged record in FlaggedHeader order for display.
func FlaggedStrings(rec insights.FlaggedRecord, caps insights.Capabilities, extra []string) []string {
	values := flaggedValues(rec, caps, extra)
	out := make([]string, len(values))
	for i, v := range values {
		switch t := v.(type) {
		case string:
			out[i] = t
		case float64:
			out[i] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			out[i] = strconv.FormatBool(t)
		}
	}
	return out
}
