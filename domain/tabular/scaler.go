package tabular

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler holds per-column mean and scale fitted on reference data so the
// same transform can be applied to new observations later.
type StandardScaler struct {
	Columns []string  `json:"columns"`
	Mean    []float64 `json:"mean"`
	Scale   []float64 `json:"scale"`
	NSample int       `json:"n_samples"`
}

// ScaleNumericFeatures standardises the named columns to zero mean and unit
// sample variance. The result has one row per table row and one column per name.
func ScaleNumericFeatures(t Table, columns []string) ([][]float64, *StandardScaler, error) {
	data, err := NumericMatrix(t, columns)
	if err != nil {
		return nil, nil, err
	}
	scaler, err := FitScaler(columns, data)
	if err != nil {
		return nil, nil, err
	}
	scaled, err := scaler.Transform(data)
	if err != nil {
		return nil, nil, err
	}
	return scaled, scaler, nil
}

// NumericMatrix extracts the named columns as float64 rows.
func NumericMatrix(t Table, columns []string) ([][]float64, error) {
	idx := make([]int, len(columns))
	for i, name := range columns {
		idx[i] = t.ColumnIndex(name)
		if idx[i] < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
	}
	out := make([][]float64, len(t.Rows))
	for r, row := range t.Rows {
		vals := make([]float64, len(columns))
		for i, j := range idx {
			c := row[j]
			if !c.Valid {
				return nil, fmt.Errorf("%w: column %q row %d is missing", ErrNonNumeric, columns[i], r+1)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(c.Value), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: column %q row %d: %q", ErrNonNumeric, columns[i], r+1, c.Value)
			}
			vals[i] = v
		}
		out[r] = vals
	}
	return out, nil
}

// FitScaler computes per-column mean and sample standard deviation.
func FitScaler(columns []string, data [][]float64) (*StandardScaler, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 rows to estimate a sample standard deviation, got %d", ErrTooFewRows, len(data))
	}
	s := &StandardScaler{
		Columns: append([]string(nil), columns...),
		Mean:    make([]float64, len(columns)),
		Scale:   make([]float64, len(columns)),
		NSample: len(data),
	}
	col := make([]float64, len(data))
	for j := range columns {
		for i, row := range data {
			col[i] = row[j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			return nil, fmt.Errorf("%w: column %q", ErrZeroVariance, columns[j])
		}
		s.Mean[j] = mean
		s.Scale[j] = std
	}
	return s, nil
}

// Transform applies (x - mean) / scale to each row.
func (s *StandardScaler) Transform(data [][]float64) ([][]float64, error) {
	out := make([][]float64, len(data))
	for i, row := range data {
		if len(row) != len(s.Columns) {
			return nil, fmt.Errorf("row %d has %d values, scaler expects %d", i+1, len(row), len(s.Columns))
		}
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.Mean[j]) / s.Scale[j]
		}
		out[i] = scaled
	}
	return out, nil
}

// InverseTransform maps standardised rows back to original units.
func (s *StandardScaler) InverseTransform(data [][]float64) ([][]float64, error) {
	out := make([][]float64, len(data))
	for i, row := range data {
		if len(row) != len(s.Columns) {
			return nil, fmt.Errorf("row %d has %d values, scaler expects %d", i+1, len(row), len(s.Columns))
		}
		orig := make([]float64, len(row))
		for j, v := range row {
			orig[j] = v*s.Scale[j] + s.Mean[j]
		}
		out[i] = orig
	}
	return out, nil
}

// MarshalIndent renders the fitted parameters for storage next to the processed data.
func (s *StandardScaler) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// ReplaceColumns writes scaled values back into a copy of t.
func ReplaceColumns(t Table, columns []string, scaled [][]float64) (Table, error) {
	if len(scaled) != len(t.Rows) {
		return Table{}, fmt.Errorf("scaled data has %d rows, table has %d", len(scaled), len(t.Rows))
	}
	out := t.Clone()
	for i, name := range columns {
		j := out.ColumnIndex(name)
		if j < 0 {
			return Table{}, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
		for r, row := range out.Rows {
			row[j] = Str(strconv.FormatFloat(scaled[r][i], 'g', -1, 64))
		}
	}
	return out, nil
}
