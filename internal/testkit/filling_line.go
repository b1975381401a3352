// Package testkit generates synthetic filling-line data for demos and tests.
package testkit

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"pcadash/adapters/excel"
	"pcadash/domain/insights"
	"pcadash/domain/tabular"
)

// FillingLineConfig configures the filling line generator
type FillingLineConfig struct {
	Parts       int           `json:"parts"`
	Components  int           `json:"components"`
	AnomalyRate float64       `json:"anomaly_rate"`
	MissingRate float64       `json:"missing_rate"`
	RejectTypes []string      `json:"reject_types"`
	StartDate   time.Time     `json:"start_date"`
	Interval    time.Duration `json:"interval"`
	Seed        uint64        `json:"seed"`
}

// DefaultFillingLineConfig returns sensible defaults for a one-shift run
func DefaultFillingLineConfig() FillingLineConfig {
	return FillingLineConfig{
		Parts:       500,
		Components:  3,
		AnomalyRate: 0.05,
		MissingRate: 0.01,
		RejectTypes: []string{"Underfill", "Overfill", "Cap Misalignment", "Leak"},
		StartDate:   time.Date(2024, 1, 8, 6, 0, 0, 0, time.UTC),
		Interval:    time.Minute,
		Seed:        42,
	}
}

// process variables of the raw line data, with nominal mean and spread
var processVariables = []struct {
	name      string
	mean, std float64
	precision int
}{
	{"Fill Volume", 500, 1.5, 2},
	{"Fill Time", 2.4, 0.05, 3},
	{"Nozzle Temp", 65, 0.8, 1},
	{"Cap-Torque", 1.8, 0.1, 3},
	{"Line Speed", 120, 2, 1},
}

// Dataset is one generated run: the raw sensor table and the PCA statistics per part
type Dataset struct {
	Raw     tabular.Table
	Results tabular.Table
}

// FillingLineGenerator produces a reproducible run for a seed
type FillingLineGenerator struct {
	config FillingLineConfig
	rng    *rand.Rand
	src    rand.Source
}

// NewFillingLineGenerator creates a new filling line generator
func NewFillingLineGenerator(config FillingLineConfig) *FillingLineGenerator {
	src := rand.NewPCG(config.Seed, config.Seed^0x9e3779b97f4a7c15)
	return &FillingLineGenerator{
		config: config,
		rng:    rand.New(src),
		src:    src,
	}
}

// Generate builds the raw table and the matching PCA results table
func (g *FillingLineGenerator) Generate() (Dataset, error) {
	if g.config.Parts < 1 {
		return Dataset{}, fmt.Errorf("parts must be at least 1, got %d", g.config.Parts)
	}
	if g.config.Components < 1 {
		return Dataset{}, fmt.Errorf("components must be at least 1, got %d", g.config.Components)
	}

	rawHeader := []string{" Part ID"}
	for _, v := range processVariables {
		rawHeader = append(rawHeader, v.name)
	}
	resultHeader := []string{insights.ColumnPartID, insights.ColumnTimestamp, insights.ColumnT2, insights.ColumnQ, insights.ColumnRejectType}

	t2 := distuv.ChiSquared{K: float64(g.config.Components), Src: g.src}
	q := distuv.ChiSquared{K: 4, Src: g.src}

	raw := make([][]string, 0, g.config.Parts)
	results := make([][]string, 0, g.config.Parts)
	for i := 0; i < g.config.Parts; i++ {
		partID := fmt.Sprintf("P%05d", i+1)
		anomalous := g.rng.Float64() < g.config.AnomalyRate
		shifted := -1
		if anomalous {
			shifted = g.rng.IntN(len(processVariables))
		}

		row := []string{partID}
		for j, v := range processVariables {
			if g.rng.Float64() < g.config.MissingRate {
				row = append(row, "")
				continue
			}
			x := v.mean + g.rng.NormFloat64()*v.std
			if j == shifted {
				x += 5 * v.std
			}
			row = append(row, strconv.FormatFloat(x, 'f', v.precision, 64))
		}
		raw = append(raw, row)

		t2Value := t2.Rand()
		qValue := q.Rand() / 4
		rejectType := ""
		if anomalous {
			// a shift shows in T2 when it follows the model, in Q when it breaks it
			if g.rng.IntN(2) == 0 {
				t2Value += 20 + 5*g.rng.Float64()
			} else {
				qValue *= 5
			}
			rejectType = g.rejectType()
		} else if len(g.config.RejectTypes) > 0 && g.rng.Float64() < 0.02 {
			rejectType = g.rejectType()
		}
		ts := g.config.StartDate.Add(time.Duration(i) * g.config.Interval)
		results = append(results, []string{
			partID,
			ts.Format(time.DateTime),
			strconv.FormatFloat(t2Value, 'f', 4, 64),
			strconv.FormatFloat(qValue, 'f', 4, 64),
			rejectType,
		})
	}

	rawTable, err := tabular.NewTable(rawHeader, raw)
	if err != nil {
		return Dataset{}, err
	}
	resultTable, err := tabular.NewTable(resultHeader, results)
	if err != nil {
		return Dataset{}, err
	}
	return Dataset{Raw: rawTable, Results: resultTable}, nil
}

func (g *FillingLineGenerator) rejectType() string {
	if len(g.config.RejectTypes) == 0 {
		return ""
	}
	return g.config.RejectTypes[g.rng.IntN(len(g.config.RejectTypes))]
}

// ResultsTable parses the generated PCA statistics the same way the dashboard does
func (d Dataset) ResultsTable() (insights.ResultsTable, error) {
	return excel.ResultsFromTable(d.Results, "generated")
}
