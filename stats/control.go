package stats

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/goeda/timeseries"
)

// ControlLimits are the center line and sigma lines of a control chart.
type ControlLimits struct {
	Mean   float64 `json:"mean"`
	Sigma  float64 `json:"sigma"`
	Upper1 float64 `json:"upper1"`
	Upper2 float64 `json:"upper2"`
	Upper3 float64 `json:"upper3"`
	Lower1 float64 `json:"lower1"`
	Lower2 float64 `json:"lower2"`
	Lower3 float64 `json:"lower3"`

	// OutOfControl holds the indices of values beyond three sigma.
	OutOfControl []int `json:"out_of_control"`
}

// ControlChart computes control limits from the mean and sample standard
// deviation of the series.
func ControlChart(series *timeseries.Series) (*ControlLimits, error) {
	x := timeseries.Finite(series.Values)
	if len(x) < 2 {
		return nil, errors.Wrapf(ErrSeriesTooShort, "control chart needs 2 values, have %d", len(x))
	}

	mean, sigma := stat.MeanStdDev(x, nil)
	c := &ControlLimits{
		Mean:   mean,
		Sigma:  sigma,
		Upper1: mean + sigma,
		Upper2: mean + 2*sigma,
		Upper3: mean + 3*sigma,
		Lower1: mean - sigma,
		Lower2: mean - 2*sigma,
		Lower3: mean - 3*sigma,
	}
	for i, v := range series.Values {
		if !math.IsNaN(v) && (v > c.Upper3 || v < c.Lower3) {
			c.OutOfControl = append(c.OutOfControl, i)
		}
	}
	return c, nil
}
