package stats

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/goeda/timeseries"
)

// LjungBoxResult represents the result of a Ljung-Box test.
type LjungBoxResult struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	Lags      int     `json:"lags"`
	DOF       int     `json:"dof"` // Degrees of freedom
}

// WhiteNoise reports whether the null hypothesis of no autocorrelation
// survives at the given significance level.
func (r *LjungBoxResult) WhiteNoise(alpha float64) bool {
	return r.PValue > alpha
}

// LjungBox tests the non-missing values of a series for autocorrelation up
// to the given lag. fitdf is the number of parameters already estimated from
// the data and is subtracted from the degrees of freedom.
func LjungBox(series *timeseries.Series, lags, fitdf int) (*LjungBoxResult, error) {
	n := len(timeseries.Finite(series.Values))
	if n < 3 {
		return nil, errors.Wrapf(ErrSeriesTooShort, "Ljung-Box needs 3 values, have %d", n)
	}
	if lags < 1 {
		return nil, errors.Errorf("invalid lag count %d", lags)
	}
	if lags >= n {
		lags = n - 1
	}

	acf := ACF(series, lags)
	if acf == nil {
		return nil, ErrConstantSeries
	}

	q := 0.0
	for k := 1; k <= lags; k++ {
		q += acf[k] * acf[k] / float64(n-k)
	}
	q *= float64(n) * float64(n+2)

	dof := lags - fitdf
	if dof < 1 {
		dof = 1
	}

	chi := distuv.ChiSquared{K: float64(dof)}
	return &LjungBoxResult{
		Statistic: q,
		PValue:    chi.Survival(q),
		Lags:      lags,
		DOF:       dof,
	}, nil
}
