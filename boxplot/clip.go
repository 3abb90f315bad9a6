package boxplot

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/goeda/timeseries"
)

// SigmaClip returns the values whose absolute deviation from the sample mean
// is at most k sample standard deviations, and the number of values removed.
// Missing values are dropped without being counted. k <= 0 disables
// clipping. The input slice is not modified.
func SigmaClip(values []float64, k float64) ([]float64, int) {
	v := timeseries.Finite(values)
	keep := clipMask(v, k)

	kept := make([]float64, 0, len(v))
	for i, x := range v {
		if keep[i] {
			kept = append(kept, x)
		}
	}
	return kept, len(v) - len(kept)
}

// clipMask marks the values of v that survive a k-sigma clip. v must hold
// finite values only.
func clipMask(v []float64, k float64) []bool {
	keep := make([]bool, len(v))
	for i := range keep {
		keep[i] = true
	}
	if k <= 0 || len(v) < 2 {
		return keep
	}

	mean := stat.Mean(v, nil)
	limit := k * timeseries.StdDev(v)
	for i, x := range v {
		if math.Abs(x-mean) > limit {
			keep[i] = false
		}
	}
	return keep
}

// FrequencyTable clips the whole series at k standard deviations and pivots
// what is left into one column per calendar bucket of freq. Missing and
// infinite values are dropped first.
func FrequencyTable(series *timeseries.Series, freq timeseries.Frequency, k float64) (*timeseries.Table, error) {
	if !series.HasTimestamps() {
		return nil, timeseries.ErrNoTimestamps
	}

	var values []float64
	var stamps []time.Time
	for i, v := range series.Values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			values = append(values, v)
			stamps = append(stamps, series.Timestamps[i])
		}
	}
	keep := clipMask(values, k)

	clipped := &timeseries.Series{Name: series.Name}
	clipped.Timestamps = make([]time.Time, 0, len(values))
	for i, ok := range keep {
		if ok {
			clipped.Values = append(clipped.Values, values[i])
			clipped.Timestamps = append(clipped.Timestamps, stamps[i])
		}
	}
	return clipped.Pivot(freq)
}
