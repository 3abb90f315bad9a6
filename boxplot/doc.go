// Package boxplot computes boxplot statistics and outliers over grouped data.
//
// # Fences
//
// ComputeFences summarises one sample:
//
//	f, outliers, err := boxplot.ComputeFences([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 100})
//	// f.Q1 = 3.25, f.Q3 = 7.75, outliers = [100]
//
// Quartiles use linear interpolation between order statistics (the
// numpy/pandas default). Inner fences lie 1.5 IQR beyond the quartiles,
// outer fences 3 IQR; a value is an outlier when it lies strictly outside
// the outer fences. Whiskers are mean ± 3 sample standard deviations.
//
// # Grouped Aggregation
//
// Aggregate a timestamped series by calendar bucket, or a table by column:
//
//	cfg := boxplot.DefaultConfig()
//	cfg.Frequency = timeseries.Monthly
//	res, err := boxplot.AggregateSeries(series, cfg)
//
//	res, err := boxplot.AggregateTable(table, &boxplot.Config{SigmaClip: 5})
//
// Before the fences of a group are computed, values further than SigmaClip
// standard deviations from the group mean are removed. The whiskers of the
// group are still computed from the unclipped values, so the whiskers follow
// the raw spread while the fences follow the quartiles of the clipped data.
//
// A group with no usable values is skipped and reported in
// Result.Diagnostics; a group with a single value or a zero IQR is kept and
// reported as degenerate. Aggregate fails only for input of the wrong shape
// or when no group produces a row:
//
//	for _, d := range res.Diagnostics {
//	    log.Printf("%s", d)
//	}
//	if errors.Is(err, boxplot.ErrInsufficientData) {
//	    // nothing to plot
//	}
package boxplot
