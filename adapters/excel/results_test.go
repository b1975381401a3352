package excel

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pcadash/domain/insights"
	"pcadash/domain/tabular"
	apperrors "pcadash/internal/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadResults_FullTable(t *testing.T) {
	path := writeFile(t, "pca_results.csv", "\xEF\xBB\xBFPart_ID,PC1,T2,Q,Reject_Type,Timestamp\n"+
		"P1,0.5,5,1,Underfill,2024-03-01 08:00:00\n"+
		"P2,-1.2,15,1,,2024-03-02T09:30:00Z\n"+
		"P3,0.1,3.5,7.25,NaN,\n")

	table, err := LoadResults(path)
	require.NoError(t, err)

	assert.Equal(t, insights.Capabilities{HasRejectType: true, HasTimestamp: true}, table.Capabilities)
	assert.Equal(t, []string{"PC1"}, table.ExtraColumns)
	require.Len(t, table.Records, 3)

	assert.Equal(t, "P1", table.Records[0].PartID)
	assert.Equal(t, "Underfill", table.Records[0].RejectType)
	assert.Equal(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), table.Records[0].Timestamp)
	assert.Equal(t, "0.5", table.Records[0].Extra["PC1"])

	assert.False(t, table.Records[1].HasRejectType())
	assert.Equal(t, 15.0, table.Records[1].T2)

	assert.False(t, table.Records[2].HasRejectType())
	assert.False(t, table.Records[2].HasTimestamp())
	assert.Equal(t, 7.25, table.Records[2].Q)
}

func TestLoadResults_OptionalColumnsAbsent(t *testing.T) {
	path := writeFile(t, "pca_results.csv", "Part_ID,T2,Q\n1,5,1\n2,15,1\n")

	table, err := LoadResults(path)
	require.NoError(t, err)
	assert.Equal(t, insights.Capabilities{}, table.Capabilities)
	assert.Empty(t, table.ExtraColumns)
	assert.Nil(t, table.Records[0].Extra)
}

func TestLoadResults_MissingRequiredColumn(t *testing.T) {
	path := writeFile(t, "pca_results.csv", "Part_ID,T2\n1,5\n")

	_, err := LoadResults(path)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeMissingColumn, apperrors.GetCode(err))
	assert.Contains(t, err.Error(), `"Q"`)
}

func TestLoadResults_MissingFile(t *testing.T) {
	_, err := LoadResults(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))
}

func TestLoadResults_BadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"non numeric T2", "Part_ID,T2,Q\nA,abc,1\n", "line 2: T2"},
		{"missing Q", "Part_ID,T2,Q\nA,1,\n", "line 2: Q: missing value"},
		{"empty part", "Part_ID,T2,Q\nA,1,1\n,1,1\n", "line 3: Part_ID is empty"},
		{"bad timestamp", "Part_ID,T2,Q,Timestamp\nA,1,1,yesterday\n", "unrecognised timestamp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadResults(writeFile(t, "r.csv", tt.content))
			require.Error(t, err)
			assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReadTable_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Part ID", "Fill-Volume", "Note"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"P1", 500.5}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := ReadTable(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Part ID", "Fill-Volume", "Note"}, table.Columns)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "500.5", table.Rows[0][1].Value)
	assert.False(t, table.Rows[0][2].Valid)
}

func TestWriteTable_CSVRoundTrip(t *testing.T) {
	src, err := tabular.NewTable([]string{"a", "b"}, [][]string{{"1", ""}, {"x,y", "2"}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "cleaned.csv")
	require.NoError(t, WriteTable(path, src))

	got, err := ReadTable(path)
	require.NoError(t, err)
	assert.Equal(t, src, got)
}

func TestWriteTable_XLSXRoundTrip(t *testing.T) {
	src, err := tabular.NewTable([]string{"a", "b"}, [][]string{{"1", "2"}, {"3", "4"}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "cleaned.xlsx")
	require.NoError(t, WriteTable(path, src))

	got, err := ReadTable(path)
	require.NoError(t, err)
	assert.Equal(t, src.Records(), got.Records())
}

func TestExportFlagged(t *testing.T) {
	caps := insights.Capabilities{HasRejectType: true}
	rows := []insights.FlaggedRecord{
		{PartRecord: insights.PartRecord{PartID: "P1", T2: 5, Q: 1, RejectType: "Cap", Extra: map[string]string{"PC1": "0.3"}}},
		{PartRecord: insights.PartRecord{PartID: "P2", T2: 15, Q: 1}, T2Flag: true, Anomaly: true},
	}

	var buf bytes.Buffer
	require.NoError(t, ExportFlagged(&buf, rows, caps, []string{"PC1"}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(insightsSheet)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"Part_ID", "T2", "Q", "Reject_Type", "PC1", "T2_Flag", "Q_Flag", "Anomaly"}, got[0])
	assert.Equal(t, "P2", got[2][0])
	assert.Equal(t, "TRUE", got[2][7])
}

func TestFlaggedStrings(t *testing.T) {
	caps := insights.Capabilities{HasRejectType: true, HasTimestamp: true}
	rec := insights.FlaggedRecord{
		PartRecord: insights.PartRecord{PartID: "P1", T2: 12.5, Q: 0.25, Timestamp: time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)},
		T2Flag:     true,
		Anomaly:    true,
	}

	got := FlaggedStrings(rec, caps, nil)
	assert.Equal(t, []string{"P1", "2024-03-01 08:30:00", "12.5", "0.25", "", "true", "false", "true"}, got)
	assert.Len(t, got, len(FlaggedHeader(caps, nil)))
}
