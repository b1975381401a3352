package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"pcadash/domain/tabular"
	apperrors "pcadash/internal/errors"
)

const defaultSheet = "Sheet1"

// WriteTable saves a table as CSV or XLSX depending on the file extension,
// creating parent directories as needed.
func WriteTable(path string, t tabular.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.Wrapf(err, "failed to create directory for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return apperrors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()

	if fileTypeOf(path) == "xlsx" {
		err = WriteXLSX(f, t.Columns, t.Records())
	} else {
		err = WriteCSV(f, t)
	}
	if err != nil {
		return err
	}
	return f.Close()
}

// WriteCSV writes header and rows, missing values as empty fields.
func WriteCSV(w io.Writer, t tabular.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return apperrors.Wrap(err, "failed to write CSV header")
	}
	if err := cw.WriteAll(t.Records()); err != nil {
		return apperrors.Wrap(err, "failed to write CSV rows")
	}
	return nil
}

// WriteXLSX writes a single-sheet workbook.
func WriteXLSX(w io.Writer, header []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := setRow(f, 1, toCells(header)); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, i+2, toCells(row)); err != nil {
			return err
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return apperrors.Wrap(err, "failed to write workbook")
	}
	return nil
}

func setRow(f *excelize.File, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return apperrors.Wrapf(err, "invalid row %d", row)
	}
	if err := f.SetSheetRow(defaultSheet, cell, &values); err != nil {
		return apperrors.Wrapf(err, "failed to write row %d", row)
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

// sheetColumn returns the spreadsheet letter for a zero-based column index.
func sheetColumn(idx int) string {
	name, err := excelize.ColumnNumberToName(idx + 1)
	if err != nil {
		return fmt.Sprintf("C%d", idx+1)
	}
	return name
}
