// Package timeseries provides time series and table data structures.
//
// A Series holds timestamped values; a Table holds named numeric columns in
// a fixed order. Missing observations are NaN throughout.
//
// # Creating a Series
//
//	series, err := timeseries.NewWithTimestamps(timestamps, values)
//
// # Loading from CSV
//
//	// A single value column, with dates when a date column is present
//	series, err := timeseries.LoadCSV("data.csv", nil)
//
//	// Every numeric column of a file
//	table, err := timeseries.LoadTableCSV("wide.csv")
//
// # Calendar Buckets
//
// Group a series by year, month or ISO week:
//
//	groups, err := series.GroupBy(timeseries.Monthly)
//	for _, g := range groups {
//	    fmt.Println(g.Key, len(g.Values)) // "2020-01" 31
//	}
//
//	// One column per bucket
//	table, err := series.Pivot(timeseries.Yearly)
//
// # Basic Statistics
//
// Statistics skip missing values:
//
//	mean := series.Mean()
//	std := series.Std()     // sample standard deviation
//	median := series.Median()
package timeseries
