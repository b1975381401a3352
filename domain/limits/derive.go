// Package limits derives T2 and Q control limits from an in-control reference set
// of PCA statistics.
package limits

import (
	"errors"
	"fmt"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"pcadash/domain/insights"
)

var ErrInsufficientData = errors.New("insufficient reference data")

// Params controls the derivation.
type Params struct {
	Components int     // retained principal components (k)
	Alpha      float64 // false-alarm rate, e.g. 0.01 for a 99% limit
}

// DefaultParams returns a 99% limit for a three-component model.
func DefaultParams() Params {
	return Params{Components: 3, Alpha: 0.01}
}

// Derivation is the outcome of Derive with the inputs that produced it.
type Derivation struct {
	Limits     insights.Limits `json:"limits"`
	Samples    int             `json:"samples"`
	Components int             `json:"components"`
	Alpha      float64         `json:"alpha"`
	QMean      float64         `json:"q_mean"`
	QVariance  float64         `json:"q_variance"`
}

// Derive computes the Hotelling T2 limit for new observations,
//
//	k(n-1)(n+1) / (n(n-k)) * F(1-alpha; k, n-k)
//
// and the Q limit with Box's scaled chi-square approximation g*chi2(1-alpha; h),
// where g = var(Q)/(2 mean(Q)) and h = 2 mean(Q)^2 / var(Q).
func Derive(table insights.ResultsTable, p Params) (Derivation, error) {
	n := table.Len()
	k := p.Components
	if k < 1 {
		return Derivation{}, fmt.Errorf("components must be at least 1, got %d", k)
	}
	if p.Alpha <= 0 || p.Alpha >= 1 {
		return Derivation{}, fmt.Errorf("alpha must be in (0, 1), got %v", p.Alpha)
	}
	// the F quantile needs at least two residual degrees of freedom
	if n <= k+1 {
		return Derivation{}, fmt.Errorf("%w: %d samples for %d components", ErrInsufficientData, n, k)
	}

	nf, kf := float64(n), float64(k)
	f := distuv.F{D1: kf, D2: nf - kf}
	t2Limit := kf * (nf - 1) * (nf + 1) / (nf * (nf - kf)) * f.Quantile(1-p.Alpha)

	q := make(stats.Float64Data, n)
	for i, rec := range table.Records {
		q[i] = rec.Q
	}
	mean, err := q.Mean()
	if err != nil {
		return Derivation{}, fmt.Errorf("Q mean: %w", err)
	}
	variance, err := q.SampleVariance()
	if err != nil {
		return Derivation{}, fmt.Errorf("Q variance: %w", err)
	}
	if variance == 0 || mean <= 0 {
		return Derivation{}, fmt.Errorf("%w: Q statistics need positive mean and variance (mean=%v, var=%v)", ErrInsufficientData, mean, variance)
	}
	g := variance / (2 * mean)
	h := 2 * mean * mean / variance
	chi := distuv.ChiSquared{K: h}
	qLimit := g * chi.Quantile(1-p.Alpha)

	return Derivation{
		Limits:     insights.Limits{T2Limit: t2Limit, QLimit: qLimit},
		Samples:    n,
		Components: k,
		Alpha:      p.Alpha,
		QMean:      mean,
		QVariance:  variance,
	}, nil
}
