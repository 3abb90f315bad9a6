// Package stats provides exploratory statistics for time series.
//
// # Autocorrelation
//
// ACF and PACF use the biased estimator, so values for long lags shrink
// toward zero:
//
//	res, err := stats.Autocorrelation(series, 24)
//	for _, lag := range stats.SignificantLags(res.Values, res.Conf95) {
//	    fmt.Println("lag", lag, res.Values[lag])
//	}
//
//	// Points of a lag plot
//	x, y := stats.LagPairs(series, 1)
//
// The Ljung-Box test checks the first lags jointly:
//
//	lb, err := stats.LjungBox(series, 10, 0)
//	if !lb.WhiteNoise(0.05) {
//	    // autocorrelated
//	}
//
// # Decomposition
//
// Decompose splits a series into trend, seasonal and residual components:
//
//	d, err := stats.Decompose(series, stats.DecomposeOptions{Period: 12})
//	test, err := d.ResidualTest(12)
//
// # Distributions
//
//	h, err := stats.NewHistogram(series.Values, stats.DefaultBins)
//	curve, err := stats.Density(series.Values, 200)
//	m, err := stats.ScatterMatrix(table, 20)
//
// # Control Charts and Smoothing
//
//	limits, err := stats.ControlChart(series)
//	forecast := stats.SESSeries(series.Values, 0.3, false)
//	rmse := stats.RMSE(series.Values, forecast[:series.Len()])
package stats
