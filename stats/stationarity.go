package stats

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/goeda/timeseries"
)

// KPSS regression types.
const (
	KPSSLevel = "c"  // Stationary around a constant
	KPSSTrend = "ct" // Stationary around a linear trend
)

// ADFResult represents the result of an Augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic    float64            `json:"statistic"`
	PValue       float64            `json:"p_value"`
	Lags         int                `json:"lags"`
	NObs         int                `json:"n_obs"`
	CriticalVals map[string]float64 `json:"critical_values"` // At 1%, 5% and 10%
	IsStationary bool               `json:"is_stationary"`
}

// Asymptotic quantiles of the Dickey-Fuller t statistic with a constant.
var adfTable = []pvaluePoint{
	{-3.96, 0.001}, {-3.43, 0.01}, {-3.12, 0.025}, {-2.86, 0.05}, {-2.57, 0.10},
	{-0.44, 0.90}, {-0.07, 0.95}, {0.23, 0.975}, {0.60, 0.99},
}

// ADF performs the Augmented Dickey-Fuller test for a unit root on the
// non-missing values. The null hypothesis is a unit root; a p-value below
// 0.05 marks the series stationary. A negative maxLag selects
// floor((n-1)^(1/3)) lagged differences.
func ADF(series *timeseries.Series, maxLag int) (*ADFResult, error) {
	y := timeseries.Finite(series.Values)
	n := len(y)
	if n < 10 {
		return nil, errors.Wrapf(ErrSeriesTooShort, "ADF needs 10 values, have %d", n)
	}
	if maxLag < 0 {
		maxLag = int(math.Floor(math.Pow(float64(n-1), 1.0/3.0)))
	}
	if maxLag > n-3 {
		maxLag = n - 3
	}

	d := Diff(y)
	nObs := n - maxLag - 1
	if nObs < maxLag+3 {
		return nil, errors.Wrapf(ErrSeriesTooShort, "ADF with %d lags has %d observations", maxLag, nObs)
	}

	// diff[t] = alpha + beta*y[t] + sum_j gamma_j*diff[t-j]
	x := mat.NewDense(nObs, 2+maxLag, nil)
	target := make([]float64, nObs)
	for i := 0; i < nObs; i++ {
		t := i + maxLag
		target[i] = d[t]
		x.Set(i, 0, 1)
		x.Set(i, 1, y[t])
		for j := 1; j <= maxLag; j++ {
			x.Set(i, 1+j, d[t-j])
		}
	}

	coef, se, err := ols(x, target)
	if err != nil {
		return nil, errors.Wrap(err, "ADF regression")
	}

	tStat := coef[1] / se[1]
	p := interpolatePValue(tStat, adfTable)
	return &ADFResult{
		Statistic: tStat,
		PValue:    p,
		Lags:      maxLag,
		NObs:      nObs,
		CriticalVals: map[string]float64{
			"1%":  -3.43,
			"5%":  -2.86,
			"10%": -2.57,
		},
		IsStationary: p < 0.05,
	}, nil
}

// KPSSResult represents the result of a KPSS test.
type KPSSResult struct {
	Statistic    float64            `json:"statistic"`
	PValue       float64            `json:"p_value"`
	Lags         int                `json:"lags"`
	CriticalVals map[string]float64 `json:"critical_values"`
	IsStationary bool               `json:"is_stationary"`
}

var (
	kpssLevelTable = []pvaluePoint{{0.347, 0.10}, {0.463, 0.05}, {0.574, 0.025}, {0.739, 0.01}}
	kpssTrendTable = []pvaluePoint{{0.119, 0.10}, {0.146, 0.05}, {0.176, 0.025}, {0.216, 0.01}}
)

// KPSS performs the Kwiatkowski-Phillips-Schmidt-Shin test on the
// non-missing values. The null hypothesis is stationarity around a level
// (KPSSLevel) or a trend (KPSSTrend). The p-value is interpolated from the
// tabulated critical values and clamped to [0.01, 0.10]. A negative nlags
// selects ceil(12*(n/100)^(1/4)).
func KPSS(series *timeseries.Series, regression string, nlags int) (*KPSSResult, error) {
	y := timeseries.Finite(series.Values)
	n := len(y)
	if n < 10 {
		return nil, errors.Wrapf(ErrSeriesTooShort, "KPSS needs 10 values, have %d", n)
	}
	if nlags < 0 {
		nlags = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	if nlags > n-1 {
		nlags = n - 1
	}

	residuals := make([]float64, n)
	var table []pvaluePoint
	switch regression {
	case "", KPSSLevel:
		table = kpssLevelTable
		mean := stat.Mean(y, nil)
		for i, v := range y {
			residuals[i] = v - mean
		}
	case KPSSTrend:
		table = kpssTrendTable
		t := make([]float64, n)
		for i := range t {
			t[i] = float64(i)
		}
		alpha, beta := stat.LinearRegression(t, y, nil, false)
		for i, v := range y {
			residuals[i] = v - alpha - beta*t[i]
		}
	default:
		return nil, errors.Errorf("unknown KPSS regression %q", regression)
	}

	// Newey-West long-run variance with Bartlett weights.
	s2 := 0.0
	for _, r := range residuals {
		s2 += r * r
	}
	s2 /= float64(n)
	for l := 1; l <= nlags; l++ {
		cov := 0.0
		for i := l; i < n; i++ {
			cov += residuals[i] * residuals[i-l]
		}
		s2 += 2 * (1 - float64(l)/float64(nlags+1)) * cov / float64(n)
	}
	if s2 <= 0 {
		return nil, ErrConstantSeries
	}

	eta, sum := 0.0, 0.0
	for _, r := range residuals {
		sum += r
		eta += sum * sum
	}
	kpss := eta / (float64(n) * float64(n) * s2)

	crit := make(map[string]float64, 3)
	for _, pt := range table {
		switch pt.p {
		case 0.10:
			crit["10%"] = pt.stat
		case 0.05:
			crit["5%"] = pt.stat
		case 0.01:
			crit["1%"] = pt.stat
		}
	}

	p := interpolatePValue(kpss, table)
	return &KPSSResult{
		Statistic:    kpss,
		PValue:       p,
		Lags:         nlags,
		CriticalVals: crit,
		IsStationary: p >= 0.05,
	}, nil
}

// ols fits y = x*coef by least squares and returns the coefficients with
// their standard errors.
func ols(x *mat.Dense, y []float64) (coef, se []float64, err error) {
	n, k := x.Dims()
	if n <= k {
		return nil, nil, errors.Wrapf(ErrSeriesTooShort, "%d observations for %d regressors", n, k)
	}

	yv := mat.NewVecDense(n, y)
	var beta mat.VecDense
	if err := beta.SolveVec(x, yv); err != nil {
		return nil, nil, err
	}

	var fitted, resid mat.VecDense
	fitted.MulVec(x, &beta)
	resid.SubVec(yv, &fitted)
	s2 := mat.Dot(&resid, &resid) / float64(n-k)

	var xtx, inv mat.Dense
	xtx.Mul(x.T(), x)
	if err := inv.Inverse(&xtx); err != nil {
		return nil, nil, err
	}

	se = make([]float64, k)
	for i := range se {
		se[i] = math.Sqrt(s2 * inv.At(i, i))
	}
	return beta.RawVector().Data, se, nil
}

type pvaluePoint struct {
	stat, p float64
}

// interpolatePValue interpolates linearly between tabulated points sorted by
// ascending statistic, clamping outside the table.
func interpolatePValue(v float64, table []pvaluePoint) float64 {
	first, last := table[0], table[len(table)-1]
	if v <= first.stat {
		return first.p
	}
	for i := 1; i < len(table); i++ {
		lo, hi := table[i-1], table[i]
		if v <= hi.stat {
			w := (v - lo.stat) / (hi.stat - lo.stat)
			return lo.p + w*(hi.p-lo.p)
		}
	}
	return last.p
}
