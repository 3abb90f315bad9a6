package stats

import (
	"math"

	moremath "github.com/aclements/go-moremath/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// DefaultBins is the histogram bin count used when none is given.
const DefaultBins = 10

// Histogram is a density histogram: the bars integrate to one.
type Histogram struct {
	Edges   []float64 `json:"edges"` // len(Density)+1 bin edges
	Counts  []int     `json:"counts"`
	Density []float64 `json:"density"`
}

// NewHistogram bins the non-missing values into equal-width bins spanning
// their range. The last bin includes its right edge. A constant sample is
// spread over [v-0.5, v+0.5].
func NewHistogram(values []float64, bins int) (*Histogram, error) {
	x := finite(values)
	if len(x) == 0 {
		return nil, errors.Wrap(ErrSeriesTooShort, "histogram of empty sample")
	}
	if bins < 1 {
		bins = DefaultBins
	}

	lo, hi := floats.Min(x), floats.Max(x)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	h := &Histogram{
		Edges:   make([]float64, bins+1),
		Counts:  make([]int, bins),
		Density: make([]float64, bins),
	}
	floats.Span(h.Edges, lo, hi)

	width := (hi - lo) / float64(bins)
	for _, v := range x {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		h.Counts[i]++
	}
	for i, c := range h.Counts {
		h.Density[i] = float64(c) / (float64(len(x)) * width)
	}
	return h, nil
}

// DensityCurve is a kernel density estimate sampled on an even grid.
type DensityCurve struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// Density estimates the probability density of the non-missing values with
// a Gaussian kernel and evaluates it at points evenly spaced over the
// estimate's bounds.
func Density(values []float64, points int) (*DensityCurve, error) {
	x := finite(values)
	if len(x) < 2 {
		return nil, errors.Wrapf(ErrSeriesTooShort, "density needs 2 values, have %d", len(x))
	}
	if floats.Min(x) == floats.Max(x) {
		return nil, ErrConstantSeries
	}
	if points < 2 {
		points = 100
	}

	kde := &moremath.KDE{Sample: moremath.Sample{Xs: x}}
	lo, hi := kde.Bounds()

	c := &DensityCurve{X: make([]float64, points), Y: make([]float64, points)}
	floats.Span(c.X, lo, hi)
	for i, v := range c.X {
		c.Y[i] = kde.PDF(v)
	}
	return c, nil
}

func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
