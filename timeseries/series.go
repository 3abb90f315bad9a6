// Package timeseries provides core time series data structures and operations.
package timeseries

import (
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// ErrNoTimestamps is returned by calendar operations on a series whose
// timestamps do not line up with its values.
var ErrNoTimestamps = errors.New("series has no timestamps")

// Series represents a time series with timestamps and values.
// Missing observations are stored as NaN.
type Series struct {
	Timestamps []time.Time
	Values     []float64
	Name       string
}

// NewWithTimestamps creates a time series with explicit timestamps.
func NewWithTimestamps(timestamps []time.Time, values []float64) (*Series, error) {
	if len(timestamps) != len(values) {
		return nil, errors.Errorf("timestamps and values must have the same length (%d != %d)",
			len(timestamps), len(values))
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
	}, nil
}

// Len returns the length of the series.
func (s *Series) Len() int {
	return len(s.Values)
}

// HasTimestamps reports whether every value has a timestamp.
func (s *Series) HasTimestamps() bool {
	return len(s.Timestamps) == len(s.Values)
}

// Mean calculates the arithmetic mean of the non-missing values.
func (s *Series) Mean() float64 {
	v := Finite(s.Values)
	if len(v) == 0 {
		return math.NaN()
	}
	return stat.Mean(v, nil)
}

// Std calculates the sample standard deviation (N-1) of the non-missing
// values. It is zero for fewer than two values.
func (s *Series) Std() float64 {
	return StdDev(Finite(s.Values))
}

// Min returns the minimum non-missing value.
func (s *Series) Min() float64 {
	v := Finite(s.Values)
	if len(v) == 0 {
		return math.NaN()
	}
	min := v[0]
	for _, x := range v[1:] {
		if x < min {
			min = x
		}
	}
	return min
}

// Max returns the maximum non-missing value.
func (s *Series) Max() float64 {
	v := Finite(s.Values)
	if len(v) == 0 {
		return math.NaN()
	}
	max := v[0]
	for _, x := range v[1:] {
		if x > max {
			max = x
		}
	}
	return max
}

// Median returns the median non-missing value.
func (s *Series) Median() float64 {
	sorted := Finite(s.Values)
	if len(sorted) == 0 {
		return math.NaN()
	}
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// DropNaN returns a copy of the series without missing values. Timestamps of
// dropped values are dropped with them.
func (s *Series) DropNaN() *Series {
	out := &Series{Name: s.Name, Values: make([]float64, 0, len(s.Values))}
	withTime := s.HasTimestamps()
	if withTime {
		out.Timestamps = make([]time.Time, 0, len(s.Values))
	}
	for i, v := range s.Values {
		if math.IsNaN(v) {
			continue
		}
		out.Values = append(out.Values, v)
		if withTime {
			out.Timestamps = append(out.Timestamps, s.Timestamps[i])
		}
	}
	return out
}

// Lag returns the series shifted forward by k steps; the first k positions
// are missing.
func (s *Series) Lag(k int) *Series {
	result := make([]float64, len(s.Values))
	for i := range result {
		if i-k >= 0 && i-k < len(s.Values) {
			result[i] = s.Values[i-k]
		} else {
			result[i] = math.NaN()
		}
	}

	return &Series{
		Timestamps: copyTimes(s.Timestamps),
		Values:     result,
		Name:       s.Name + "_lag",
	}
}

// Slice returns a slice of the series from start to end (exclusive).
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > len(s.Values) {
		end = len(s.Values)
	}
	if start >= end {
		return &Series{Values: []float64{}, Name: s.Name}
	}

	values := make([]float64, end-start)
	copy(values, s.Values[start:end])

	var timestamps []time.Time
	if len(s.Timestamps) >= end {
		timestamps = copyTimes(s.Timestamps[start:end])
	}

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
	}
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	values := make([]float64, len(s.Values))
	copy(values, s.Values)

	return &Series{
		Timestamps: copyTimes(s.Timestamps),
		Values:     values,
		Name:       s.Name,
	}
}

// Log applies the natural logarithm. Non-positive values become missing.
func (s *Series) Log() *Series {
	result := make([]float64, len(s.Values))
	for i, v := range s.Values {
		if v > 0 {
			result[i] = math.Log(v)
		} else {
			result[i] = math.NaN()
		}
	}

	return &Series{
		Timestamps: copyTimes(s.Timestamps),
		Values:     result,
		Name:       s.Name + "_log",
	}
}

// Group is one calendar bucket of a series.
type Group struct {
	Key    string
	Start  time.Time
	Values []float64
}

// GroupBy partitions the series into calendar buckets of the given
// frequency. Buckets are returned in chronological order; values keep their
// series order within a bucket. Missing values are kept.
func (s *Series) GroupBy(freq Frequency) ([]Group, error) {
	if !s.HasTimestamps() {
		return nil, ErrNoTimestamps
	}

	// Keyed by label: equal instants may carry distinct *time.Location values.
	index := make(map[string]int)
	var groups []Group
	for i, ts := range s.Timestamps {
		key := freq.Key(ts)
		g, ok := index[key]
		if !ok {
			g = len(groups)
			index[key] = g
			groups = append(groups, Group{Key: key, Start: freq.Start(ts)})
		}
		groups[g].Values = append(groups[g].Values, s.Values[i])
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Start.Before(groups[j].Start)
	})
	return groups, nil
}

// Pivot turns the series into a table with one column per calendar bucket,
// named by the bucket key.
func (s *Series) Pivot(freq Frequency) (*Table, error) {
	groups, err := s.GroupBy(freq)
	if err != nil {
		return nil, err
	}
	t := &Table{}
	for _, g := range groups {
		if err := t.AddColumn(g.Key, g.Values); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Finite returns a new slice holding the values of v that are neither NaN
// nor infinite.
func Finite(v []float64) []float64 {
	out := make([]float64, 0, len(v))
	for _, x := range v {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	return out
}

// StdDev is the sample standard deviation of v, defined as zero for fewer
// than two values.
func StdDev(v []float64) float64 {
	if len(v) < 2 {
		return 0
	}
	return stat.StdDev(v, nil)
}

func copyTimes(ts []time.Time) []time.Time {
	if ts == nil {
		return nil
	}
	out := make([]time.Time, len(ts))
	copy(out, ts)
	return out
}
