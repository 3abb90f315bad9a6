package stats

import (
	"math"

	"github.com/pkg/errors"

	"github.com/sartorproj/goeda/timeseries"
)

// Decomposition methods.
const (
	MethodSTL       = "stl"
	MethodClassical = "classical"
)

// DecomposeOptions configures Decompose.
type DecomposeOptions struct {
	Period         int    // Observations per seasonal cycle, e.g. 12 for monthly data
	Method         string // MethodSTL (default) or MethodClassical
	Log            bool   // Decompose the natural log of the series
	RobustIters    int    // STL outer iterations with bisquare weights (default: 2)
	Multiplicative bool   // Classical only: Y = T * S * R instead of Y = T + S + R
}

// Decomposition holds the components of a decomposed series. For the
// classical method the trend and residual are NaN where the centered moving
// average is undefined.
type Decomposition struct {
	Observed *timeseries.Series
	Trend    *timeseries.Series
	Seasonal *timeseries.Series
	Residual *timeseries.Series
	Period   int
	Method   string
}

// Decompose splits a series into trend, seasonal and residual components.
// The series needs at least two full periods and no missing values.
func Decompose(series *timeseries.Series, opts DecomposeOptions) (*Decomposition, error) {
	if opts.Period < 2 {
		return nil, errors.Errorf("invalid period %d", opts.Period)
	}
	n := series.Len()
	if n < 2*opts.Period {
		return nil, errors.Wrapf(ErrSeriesTooShort, "need %d values for period %d, have %d",
			2*opts.Period, opts.Period, n)
	}
	for i, v := range series.Values {
		if math.IsNaN(v) {
			return nil, errors.Errorf("missing value at index %d", i)
		}
	}

	observed := series.Copy()
	if opts.Log {
		observed = series.Log()
		for i, v := range observed.Values {
			if math.IsNaN(v) {
				return nil, errors.Errorf("log of non-positive value at index %d", i)
			}
		}
	}

	var trend, seasonal, residual []float64
	method := opts.Method
	switch method {
	case "", MethodSTL:
		method = MethodSTL
		iters := opts.RobustIters
		if iters < 1 {
			iters = 2
		}
		trend, seasonal, residual = stl(observed.Values, opts.Period, iters)
	case MethodClassical:
		trend, seasonal, residual = classical(observed.Values, opts.Period, opts.Multiplicative)
	default:
		return nil, errors.Errorf("unknown decomposition method %q", opts.Method)
	}

	component := func(values []float64, name string) *timeseries.Series {
		return &timeseries.Series{
			Timestamps: observed.Timestamps,
			Values:     values,
			Name:       name,
		}
	}
	return &Decomposition{
		Observed: observed,
		Trend:    component(trend, "trend"),
		Seasonal: component(seasonal, "seasonal"),
		Residual: component(residual, "residual"),
		Period:   opts.Period,
		Method:   method,
	}, nil
}

// ResidualACF is the autocorrelation of the residual component.
func (d *Decomposition) ResidualACF(maxLag int) (*ACFResult, error) {
	return Autocorrelation(d.Residual, maxLag)
}

// ResidualTest runs a Ljung-Box test on the residual component.
func (d *Decomposition) ResidualTest(lags int) (*LjungBoxResult, error) {
	return LjungBox(d.Residual, lags, 0)
}

func classical(y []float64, period int, multiplicative bool) (trend, seasonal, residual []float64) {
	n := len(y)
	trend = centeredMovingAverage(y, period)

	detrended := make([]float64, n)
	for i := range y {
		switch {
		case math.IsNaN(trend[i]):
			detrended[i] = math.NaN()
		case multiplicative:
			detrended[i] = y[i] / trend[i]
		default:
			detrended[i] = y[i] - trend[i]
		}
	}

	pattern := seasonalMeans(detrended, nil, period)
	center := 0.0
	for _, v := range pattern {
		center += v
	}
	center /= float64(period)
	for i := range pattern {
		if multiplicative {
			pattern[i] /= center
		} else {
			pattern[i] -= center
		}
	}

	seasonal = make([]float64, n)
	residual = make([]float64, n)
	for i := range y {
		seasonal[i] = pattern[i%period]
		switch {
		case math.IsNaN(trend[i]):
			residual[i] = math.NaN()
		case multiplicative:
			residual[i] = y[i] / (trend[i] * seasonal[i])
		default:
			residual[i] = y[i] - trend[i] - seasonal[i]
		}
	}
	return trend, seasonal, residual
}

// centeredMovingAverage is the period-length centered moving average; even
// periods use a 2xperiod average with half weight at both ends.
func centeredMovingAverage(y []float64, period int) []float64 {
	n := len(y)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	half := period / 2
	for i := half; i < n-half; i++ {
		sum := 0.0
		if period%2 == 0 {
			sum += 0.5 * (y[i-half] + y[i+half])
			for j := i - half + 1; j < i+half; j++ {
				sum += y[j]
			}
		} else {
			for j := i - half; j <= i+half; j++ {
				sum += y[j]
			}
		}
		out[i] = sum / float64(period)
	}
	return out
}

// seasonalMeans averages the values at each position of the cycle, skipping
// NaN. A nil weights slice weighs every value equally.
func seasonalMeans(values, weights []float64, period int) []float64 {
	sums := make([]float64, period)
	totals := make([]float64, period)
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		sums[i%period] += w * v
		totals[i%period] += w
	}
	for i := range sums {
		if totals[i] > 0 {
			sums[i] /= totals[i]
		}
	}
	return sums
}

// stl is a simplified STL: alternating seasonal averaging and triangular
// trend smoothing, with bisquare robustness weights between outer passes.
func stl(y []float64, period, iters int) (trend, seasonal, residual []float64) {
	n := len(y)
	trend = make([]float64, n)
	seasonal = make([]float64, n)
	residual = make([]float64, n)
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1
	}

	window := period
	if window%2 == 0 {
		window++
	}

	detrended := make([]float64, n)
	adjusted := make([]float64, n)
	for iter := 0; iter < iters; iter++ {
		for i := range y {
			detrended[i] = y[i] - trend[i]
		}
		pattern := seasonalMeans(detrended, weights, period)
		center := 0.0
		for _, v := range pattern {
			center += v
		}
		center /= float64(period)

		for i := range y {
			seasonal[i] = pattern[i%period] - center
			adjusted[i] = y[i] - seasonal[i]
		}
		copy(trend, triangularSmooth(adjusted, weights, window))

		for i := range y {
			residual[i] = y[i] - trend[i] - seasonal[i]
		}
		if iter < iters-1 {
			bisquare(residual, weights)
		}
	}
	return trend, seasonal, residual
}

// triangularSmooth is a weighted moving average with triangular kernel of
// the given odd width, truncated at the series ends.
func triangularSmooth(values, weights []float64, width int) []float64 {
	n := len(values)
	half := width / 2
	out := make([]float64, n)
	for i := range values {
		sum, total := 0.0, 0.0
		for j := -half; j <= half; j++ {
			k := i + j
			if k < 0 || k >= n {
				continue
			}
			w := weights[k] * (1 - math.Abs(float64(j))/float64(half+1))
			sum += w * values[k]
			total += w
		}
		if total > 0 {
			out[i] = sum / total
		}
	}
	return out
}

// bisquare sets robustness weights from residuals: (1-u²)² with
// u = |r| / (6·median|r|), zero for u >= 1.
func bisquare(residual, weights []float64) {
	abs := make([]float64, len(residual))
	for i, r := range residual {
		abs[i] = math.Abs(r)
	}
	h := 6 * (&timeseries.Series{Values: abs}).Median()
	if h == 0 {
		return
	}
	for i, r := range abs {
		u := r / h
		if u < 1 {
			weights[i] = (1 - u*u) * (1 - u*u)
		} else {
			weights[i] = 0
		}
	}
}
