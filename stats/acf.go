package stats

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/goeda/timeseries"
)

var (
	// ErrSeriesTooShort is returned when a series has too few non-missing
	// values for the requested statistic.
	ErrSeriesTooShort = errors.New("series too short")

	// ErrConstantSeries is returned when a statistic needs a non-zero
	// variance.
	ErrConstantSeries = errors.New("series has zero variance")
)

// ACF calculates the sample autocorrelation of the non-missing values for
// lags 0 to maxLag, using the biased autocovariance estimator (divide by n at
// every lag). A negative maxLag, or one beyond the series, selects every lag
// up to n-1. It returns nil for an empty or constant series.
func ACF(series *timeseries.Series, maxLag int) []float64 {
	x := timeseries.Finite(series.Values)
	n := len(x)
	if n == 0 {
		return nil
	}
	if maxLag < 0 || maxLag >= n {
		maxLag = n - 1
	}

	mean := stat.Mean(x, nil)
	c0 := 0.0
	for _, v := range x {
		c0 += (v - mean) * (v - mean)
	}
	if c0 == 0 {
		return nil
	}

	acf := make([]float64, maxLag+1)
	for k := range acf {
		sum := 0.0
		for i := k; i < n; i++ {
			sum += (x[i] - mean) * (x[i-k] - mean)
		}
		acf[k] = sum / c0
	}
	return acf
}

// PACF calculates the partial autocorrelation for lags 0 to maxLag with the
// Durbin-Levinson recursion. PACF[0] is 1.
func PACF(series *timeseries.Series, maxLag int) []float64 {
	acf := ACF(series, maxLag)
	if len(acf) < 2 {
		return nil
	}
	maxLag = len(acf) - 1

	pacf := make([]float64, maxLag+1)
	pacf[0] = 1
	pacf[1] = acf[1]

	prev := []float64{acf[1]}
	for k := 2; k <= maxLag; k++ {
		num, den := acf[k], 1.0
		for j := 1; j < k; j++ {
			num -= prev[j-1] * acf[k-j]
			den -= prev[j-1] * acf[j]
		}
		if den == 0 {
			break
		}
		phi := num / den
		pacf[k] = phi

		next := make([]float64, k)
		for j := 1; j < k; j++ {
			next[j-1] = prev[j-1] - phi*prev[k-j-1]
		}
		next[k-1] = phi
		prev = next
	}
	return pacf
}

// Significance returns the 95% and 99% two-sided confidence bounds of a white
// noise autocorrelation for a sample of size n.
func Significance(n int) (z95, z99 float64) {
	if n <= 0 {
		return math.NaN(), math.NaN()
	}
	root := math.Sqrt(float64(n))
	return distuv.UnitNormal.Quantile(0.975) / root, distuv.UnitNormal.Quantile(0.995) / root
}

// ACFResult holds autocorrelations with their significance bounds.
type ACFResult struct {
	Lags   []int     `json:"lags"`
	Values []float64 `json:"values"`
	Conf95 float64   `json:"conf95"`
	Conf99 float64   `json:"conf99"`
}

// Autocorrelation calculates the ACF with 95% and 99% bounds.
func Autocorrelation(series *timeseries.Series, maxLag int) (*ACFResult, error) {
	n := len(timeseries.Finite(series.Values))
	if n < 2 {
		return nil, errors.Wrapf(ErrSeriesTooShort, "autocorrelation needs 2 values, have %d", n)
	}
	acf := ACF(series, maxLag)
	if acf == nil {
		return nil, ErrConstantSeries
	}

	lags := make([]int, len(acf))
	for i := range lags {
		lags[i] = i
	}
	z95, z99 := Significance(n)
	return &ACFResult{Lags: lags, Values: acf, Conf95: z95, Conf99: z99}, nil
}

// SignificantLags returns the lags, from 1, whose value exceeds the bound in
// absolute value.
func SignificantLags(values []float64, bound float64) []int {
	var significant []int
	for i := 1; i < len(values); i++ {
		if math.Abs(values[i]) > bound {
			significant = append(significant, i)
		}
	}
	return significant
}

// LagPairs returns the points of a lag plot: x[i] is the value at t and y[i]
// the value at t-lag. Pairs with a missing value are left out.
func LagPairs(series *timeseries.Series, lag int) (x, y []float64) {
	if lag < 1 {
		return nil, nil
	}
	v := series.Values
	for t := lag; t < len(v); t++ {
		if math.IsNaN(v[t]) || math.IsNaN(v[t-lag]) {
			continue
		}
		x = append(x, v[t])
		y = append(y, v[t-lag])
	}
	return x, y
}
