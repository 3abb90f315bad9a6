package boxplot

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/goeda/timeseries"
)

// FenceStats holds the boxplot statistics of one sample.
//
// Quartiles and fences describe the (possibly clipped) sample. Whiskers are
// mean ± 3 standard deviations of the raw sample instead, so they follow the
// unclipped spread.
type FenceStats struct {
	Q1              float64 `json:"q1"`
	Q2              float64 `json:"q2"`
	Q3              float64 `json:"q3"`
	IQR             float64 `json:"iqr"`
	LowerInnerFence float64 `json:"lower_inner_fence"`
	UpperInnerFence float64 `json:"upper_inner_fence"`
	LowerOuterFence float64 `json:"lower_outer_fence"`
	UpperOuterFence float64 `json:"upper_outer_fence"`
	UpperWhisker    float64 `json:"upper_whisker"`
	LowerWhisker    float64 `json:"lower_whisker"`
}

// Degenerate reports whether the fences have collapsed onto the quartiles.
func (f *FenceStats) Degenerate() bool {
	return f.IQR == 0
}

// IsOutlier reports whether v lies strictly outside the outer fences.
func (f *FenceStats) IsOutlier(v float64) bool {
	return v < f.LowerOuterFence || v > f.UpperOuterFence
}

// ComputeFences computes boxplot statistics of sample and returns the values
// beyond the outer fences, every occurrence in sample order. Missing and
// infinite values are ignored. Whiskers are computed from the same sample.
func ComputeFences(sample []float64) (*FenceStats, []float64, error) {
	return ComputeFencesFrom(sample, sample)
}

// ComputeFencesFrom is ComputeFences with a separate whisker basis: quartiles,
// fences and outliers come from sample, whiskers from raw. An empty raw
// sample falls back to sample.
func ComputeFencesFrom(sample, raw []float64) (*FenceStats, []float64, error) {
	s := timeseries.Finite(sample)
	if len(s) == 0 {
		return nil, nil, &InsufficientDataError{Count: 0}
	}

	sorted := make([]float64, len(s))
	copy(sorted, s)
	sort.Float64s(sorted)

	f := &FenceStats{
		Q1: Quantile(sorted, 0.25),
		Q2: Quantile(sorted, 0.5),
		Q3: Quantile(sorted, 0.75),
	}
	f.IQR = f.Q3 - f.Q1
	f.LowerInnerFence = f.Q1 - 1.5*f.IQR
	f.UpperInnerFence = f.Q3 + 1.5*f.IQR
	f.LowerOuterFence = f.Q1 - 3*f.IQR
	f.UpperOuterFence = f.Q3 + 3*f.IQR

	basis := timeseries.Finite(raw)
	if len(basis) == 0 {
		basis = s
	}
	mean := stat.Mean(basis, nil)
	spread := 3 * timeseries.StdDev(basis)
	f.UpperWhisker = mean + spread
	f.LowerWhisker = mean - spread

	var outliers []float64
	for _, v := range s {
		if f.IsOutlier(v) {
			outliers = append(outliers, v)
		}
	}
	return f, outliers, nil
}

// Quantile returns the p-quantile of an ascending sorted sample using linear
// interpolation between order statistics (Hyndman and Fan type 7, the
// numpy/pandas default): with h = (n-1)p, the result is
// x[⌊h⌋] + (h-⌊h⌋)(x[⌊h⌋+1]-x[⌊h⌋]).
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return math.NaN()
	case p <= 0:
		return sorted[0]
	case p >= 1:
		return sorted[n-1]
	}

	h := float64(n-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= n {
		return sorted[n-1]
	}
	if h == lo {
		return sorted[i]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}
