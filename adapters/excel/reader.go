package excel

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"pcadash/domain/tabular"
	apperrors "pcadash/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	return &DataReader{filePath: filePath, fileType: fileTypeOf(filePath)}
}

func fileTypeOf(path string) string {
	if strings.ToLower(filepath.Ext(path)) == ".xlsx" {
		return "xlsx"
	}
	return "csv"
}

// ReadTable reads the file into a table. Empty cells are missing values.
func (r *DataReader) ReadTable() (tabular.Table, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return tabular.Table{}, apperrors.NotFound(fmt.Sprintf("%s file %s", strings.ToUpper(r.fileType), r.filePath))
	}

	start := time.Now()
	var (
		rows [][]string
		err  error
	)
	switch r.fileType {
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		rows, err = r.readCSVRows()
	}
	if err != nil {
		return tabular.Table{}, err
	}
	if len(rows) == 0 {
		return tabular.Table{}, apperrors.InvalidInput(fmt.Sprintf("%s has no header row", r.filePath))
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	body := rows[1:]
	for i, row := range body {
		body[i] = fitWidth(row, len(header))
	}

	table, err := tabular.NewTable(header, body)
	if err != nil {
		return tabular.Table{}, apperrors.WithCode(apperrors.CodeInvalidInput, err)
	}

	slog.Debug("table file read",
		slog.String("component", "data_reader"),
		slog.String("path", r.filePath),
		slog.String("type", r.fileType),
		slog.Int("columns", len(header)),
		slog.Int("rows", len(body)),
		slog.Duration("elapsed", time.Since(start)))
	return table, nil
}

// readExcelRows reads the first sheet of the workbook
func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.InvalidInput(fmt.Sprintf("%s has no sheets", r.filePath))
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to read sheet %s", sheets[0])
	}
	return rows, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	content, err := os.ReadFile(r.filePath)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open CSV file")
	}
	return ParseCSV(bytes.NewReader(content))
}

// ParseCSV reads all CSV records, dropping a leading UTF-8 byte order mark.
func ParseCSV(src io.Reader) ([][]string, error) {
	content, err := io.ReadAll(src)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read CSV content")
	}
	content = bytes.TrimPrefix(content, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeInvalidInput, fmt.Errorf("failed to parse CSV: %w", err))
	}
	return rows, nil
}

// fitWidth pads short rows (xlsx drops trailing empty cells) and keeps long rows intact
// so that NewTable reports them as ragged.
func fitWidth(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}

// ReadTable is a convenience wrapper around NewDataReader(path).ReadTable().
func ReadTable(path string) (tabular.Table, error) {
	return NewDataReader(path).ReadTable()
}
