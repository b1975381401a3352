package profiling

import (
	"math"

	"github.com/montanaflynn/stats"
)

// Distribution summarises the shape of one numeric column
type Distribution struct {
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Q25      float64 `json:"q25"`
	Median   float64 `json:"median"`
	Q75      float64 `json:"q75"`
	Max      float64 `json:"max"`
	CV       float64 `json:"cv"`
	Skewness float64 `json:"skewness"`
	Outliers int     `json:"outliers"`
}

// AnalyzeDistribution computes summary statistics, skewness and IQR outliers
func AnalyzeDistribution(data stats.Float64Data) (Distribution, error) {
	var d Distribution
	var err error

	if d.Mean, err = data.Mean(); err != nil {
		return d, err
	}
	if d.Min, err = data.Min(); err != nil {
		return d, err
	}
	if d.Max, err = data.Max(); err != nil {
		return d, err
	}
	if d.Median, err = data.Median(); err != nil {
		return d, err
	}
	// sample standard deviation, matching the scaler
	if len(data) > 1 {
		if d.StdDev, err = data.StandardDeviationSample(); err != nil {
			return d, err
		}
	}

	// Quartiles for IQR-based outlier detection
	if d.Q25, err = data.Percentile(25); err != nil {
		d.Q25 = d.Min
	}
	if d.Q75, err = data.Percentile(75); err != nil {
		d.Q75 = d.Max
	}

	if d.Mean != 0 {
		d.CV = d.StdDev / math.Abs(d.Mean)
	}
	d.Skewness = calculateSkewness(data, d.Mean, d.StdDev)
	d.Outliers = detectOutliers(data, d.Q25, d.Q75)
	return d, nil
}

// calculateSkewness computes sample skewness using the adjusted Fisher-Pearson coefficient
func calculateSkewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sumCubedDeviations := 0.0
	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumCubedDeviations += deviation * deviation * deviation
	}

	// stdDev is already the sample estimate, so G1 = n / ((n-1)(n-2)) * sum(z^3)
	return n / ((n - 1) * (n - 2)) * sumCubedDeviations
}

// detectOutliers counts values outside the 1.5 IQR fences
func detectOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lowerBound := q25 - 1.5*iqr
	upperBound := q75 + 1.5*iqr

	outlierCount := 0
	for _, x := range data {
		if x < lowerBound || x > upperBound {
			outlierCount++
		}
	}
	return outlierCount
}
