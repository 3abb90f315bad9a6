// Package goeda provides exploratory data analysis statistics for time series
// and tabular data.
//
// Every operation returns plain data (quartiles, fences, correlations,
// components, coefficients) that a charting layer can draw; nothing here
// renders.
//
// # Features
//
//   - Boxplot fences, whiskers and outliers per calendar bucket or per column
//   - Sigma clipping before aggregation, with per-group diagnostics
//   - Autocorrelation (ACF, PACF) with 95% and 99% significance bands
//   - Stationarity tests (ADF, KPSS) and the Ljung-Box test
//   - Control chart limits and simple exponential smoothing
//   - Seasonal decomposition (classical and STL)
//   - Histograms, kernel density curves and scatter matrices
//   - Polynomial fits with cross validation and bagging
//   - Persistence of boxplot runs in SQLite or PostgreSQL
//
// # Quick Start
//
// Boxplot statistics of a monthly series, grouped by year:
//
//	series, _ := timeseries.LoadCSV("sales.csv", nil)
//	res, err := boxplot.AggregateSeries(series, boxplot.DefaultConfig())
//	for _, row := range res.Rows {
//	    fmt.Println(row.Key, row.Stats.Q1, row.Stats.Q2, row.Stats.Q3)
//	}
//
// Autocorrelation with significance bands:
//
//	acf, _ := stats.Autocorrelation(series, 40)
//	lags := stats.SignificantLags(acf.Values, acf.Conf95)
//
// # Packages
//
//   - timeseries: series and table types, calendar grouping, CSV input
//   - boxplot: fence calculator and grouped aggregator
//   - stats: autocorrelation, tests, decomposition, smoothing, densities
//   - polyfit: polynomial regression and validation
//   - store: SQL persistence of boxplot runs
//   - config: YAML and environment configuration
//
// The goeda command (cmd/goeda) exposes the analyses as JSON producing
// subcommands.
//
// # References
//
//   - Hyndman, R.J., & Athanasopoulos, G. (2021). Forecasting: Principles and Practice
//   - Tukey, J.W. (1977). Exploratory Data Analysis
package goeda
