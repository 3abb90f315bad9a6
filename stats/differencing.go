package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/goeda/timeseries"
)

// Diff returns the first differences of values; the result is one shorter.
func Diff(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	d := make([]float64, len(values)-1)
	for i := range d {
		d[i] = values[i+1] - values[i]
	}
	return d
}

// NDiffs returns how many first differences, at most maxD, make the series
// level stationary according to the KPSS test. It stops early when the
// differenced series gets too short to test.
func NDiffs(series *timeseries.Series, maxD int) int {
	if maxD <= 0 {
		maxD = 2
	}

	values := timeseries.Finite(series.Values)
	for d := 0; d < maxD; d++ {
		res, err := KPSS(&timeseries.Series{Values: values}, KPSSLevel, -1)
		if err != nil || res.IsStationary {
			return d
		}
		values = Diff(values)
	}
	return maxD
}

// SeasonalStrength is max(0, 1 - Var(R)/Var(S+R)) over the positions where
// both components are defined. Values near 1 mean strong seasonality.
func (d *Decomposition) SeasonalStrength() float64 {
	return strength(d.Seasonal.Values, d.Residual.Values)
}

// TrendStrength is max(0, 1 - Var(R)/Var(T+R)).
func (d *Decomposition) TrendStrength() float64 {
	return strength(d.Trend.Values, d.Residual.Values)
}

func strength(component, residual []float64) float64 {
	var r, cr []float64
	for i := range component {
		if math.IsNaN(component[i]) || math.IsNaN(residual[i]) {
			continue
		}
		r = append(r, residual[i])
		cr = append(cr, component[i]+residual[i])
	}
	if len(r) < 2 {
		return 0
	}

	varCR := stat.Variance(cr, nil)
	if varCR == 0 {
		return 0
	}
	return math.Max(0, 1-stat.Variance(r, nil)/varCR)
}
