package boxplot

import (
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/goeda/timeseries"
)

func monthlySeries(start time.Time, values []float64) *timeseries.Series {
	ts := make([]time.Time, len(values))
	for i := range ts {
		ts[i] = start.AddDate(0, i, 0)
	}
	return &timeseries.Series{Timestamps: ts, Values: values, Name: "y"}
}

func TestAggregateSeriesByYear(t *testing.T) {
	require := require.New(t)

	values := make([]float64, 36)
	for i := range values {
		values[i] = float64(i)
	}
	series := monthlySeries(time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC), values)

	res, err := AggregateSeries(series, DefaultConfig())
	require.NoError(err)
	require.Len(res.Rows, 3)
	require.Empty(res.Outliers)
	require.Empty(res.Diagnostics)

	for i, key := range []string{"2018", "2019", "2020"} {
		row := res.Rows[i]
		require.Equal(key, row.Key)
		require.Equal(12, row.Count)
		require.Equal(0, row.Clipped)

		base := float64(12 * i)
		require.InDelta(base+2.75, row.Stats.Q1, 1e-12)
		require.InDelta(base+5.5, row.Stats.Q2, 1e-12)
		require.InDelta(base+8.25, row.Stats.Q3, 1e-12)
	}
}

func TestAggregateSeriesHalfHourOffset(t *testing.T) {
	require := require.New(t)

	ts := make([]time.Time, 12)
	values := make([]float64, 12)
	for i := range ts {
		var err error
		ts[i], err = time.Parse(time.RFC3339, fmt.Sprintf("2020-%02d-01T00:00:00+05:30", i+1))
		require.NoError(err)
		values[i] = float64(i)
	}
	series := &timeseries.Series{Timestamps: ts, Values: values}

	res, err := AggregateSeries(series, DefaultConfig())
	require.NoError(err)
	require.Len(res.Rows, 1)
	require.Equal("2020", res.Rows[0].Key)
	require.Equal(12, res.Rows[0].Count)

	table, err := FrequencyTable(series, timeseries.Yearly, 3.5)
	require.NoError(err)
	require.Equal([]string{"2020"}, table.Names())
}

func TestAggregateIgnoresInfiniteValues(t *testing.T) {
	require := require.New(t)

	table, err := timeseries.NewTable(timeseries.Column{
		Name:   "a",
		Values: []float64{1, 2, 3, 4, math.Inf(1)},
	})
	require.NoError(err)

	res, err := AggregateTable(table, &Config{})
	require.NoError(err)
	require.Len(res.Rows, 1)
	row := res.Rows[0]
	require.Equal(4, row.Count)
	require.InDelta(3.25, row.Stats.Q3, 1e-12)
	require.False(math.IsNaN(row.Stats.UpperOuterFence))
}

func TestAggregateSeriesByMonthChronological(t *testing.T) {
	require := require.New(t)

	// Daily values, given newest first.
	var ts []time.Time
	var values []float64
	start := time.Date(2021, 3, 31, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 90; i++ {
		ts = append(ts, start.AddDate(0, 0, -i))
		values = append(values, float64(i%7))
	}
	series := &timeseries.Series{Timestamps: ts, Values: values}

	cfg := DefaultConfig()
	cfg.Frequency = timeseries.Monthly
	res, err := AggregateSeries(series, cfg)
	require.NoError(err)

	var keys []string
	for _, row := range res.Rows {
		keys = append(keys, row.Key)
	}
	require.Equal([]string{"2021-01", "2021-02", "2021-03"}, keys)
}

func TestAggregateTableOutlierColumn(t *testing.T) {
	require := require.New(t)

	table, err := timeseries.NewTable(
		timeseries.Column{Name: "spiky", Values: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 100}},
		timeseries.Column{Name: "calm", Values: []float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}},
	)
	require.NoError(err)

	cfg := DefaultConfig()
	cfg.SigmaClip = 5
	res, err := AggregateTable(table, cfg)
	require.NoError(err)

	require.Len(res.Rows, 2)
	require.Equal("spiky", res.Rows[0].Key)
	require.Equal("calm", res.Rows[1].Key)
	require.Equal([]Outlier{{Group: "spiky", Value: 100}}, res.Outliers)
}

func TestAggregateSinglePointGroup(t *testing.T) {
	require := require.New(t)

	table, err := timeseries.NewTable(
		timeseries.Column{Name: "solo", Values: []float64{math.NaN(), 42}},
		timeseries.Column{Name: "many", Values: []float64{1, 2, 3, 4}},
	)
	require.NoError(err)

	res, err := AggregateTable(table, nil)
	require.NoError(err)
	require.Len(res.Rows, 2)

	row, ok := res.Row("solo")
	require.True(ok)
	require.Equal(1, row.Count)
	f := row.Stats
	require.Equal(42.0, f.Q1)
	require.Equal(42.0, f.Q2)
	require.Equal(42.0, f.Q3)
	require.Equal(0.0, f.IQR)
	require.Equal(42.0, f.LowerOuterFence)
	require.Equal(42.0, f.UpperOuterFence)
	require.Equal(42.0, f.LowerInnerFence)
	require.Equal(42.0, f.UpperInnerFence)

	require.Len(res.Diagnostics, 1)
	require.Equal(Diagnostic{Group: "solo", Kind: Degenerate, Reason: "single value"}, res.Diagnostics[0])
}

func TestAggregateSinglePointAfterClip(t *testing.T) {
	require := require.New(t)

	table, err := timeseries.NewTable(timeseries.Column{Name: "x", Values: []float64{1, 2, 3}})
	require.NoError(err)

	// mean 2, std 1: only the middle value survives a half-sigma clip.
	res, err := AggregateTable(table, &Config{SigmaClip: 0.5})
	require.NoError(err)
	require.Len(res.Rows, 1)

	row := res.Rows[0]
	require.Equal(3, row.Count)
	require.Equal(2, row.Clipped)
	require.Equal(2.0, row.Stats.Q1)
	require.Equal(2.0, row.Stats.Q3)
	require.Equal(2.0, row.Stats.UpperOuterFence)

	// Whiskers still describe the unclipped group.
	require.InDelta(5.0, row.Stats.UpperWhisker, 1e-12)
	require.InDelta(-1.0, row.Stats.LowerWhisker, 1e-12)
	require.Equal(Degenerate, res.Diagnostics[0].Kind)
}

func TestAggregateWhiskersUseUnclippedGroup(t *testing.T) {
	require := require.New(t)

	values := make([]float64, 0, 21)
	for i := 1; i <= 20; i++ {
		values = append(values, float64(i))
	}
	values = append(values, 1000)

	table, err := timeseries.NewTable(timeseries.Column{Name: "v", Values: values})
	require.NoError(err)

	res, err := AggregateTable(table, &Config{SigmaClip: 4})
	require.NoError(err)

	row := res.Rows[0]
	require.Equal(1, row.Clipped)
	require.InDelta(5.75, row.Stats.Q1, 1e-12)
	require.InDelta(15.25, row.Stats.Q3, 1e-12)

	mean, std := stat.MeanStdDev(values, nil)
	require.InDelta(mean+3*std, row.Stats.UpperWhisker, 1e-9)
	require.InDelta(mean-3*std, row.Stats.LowerWhisker, 1e-9)

	// The clipped value is gone before fences are applied.
	require.Empty(res.Outliers)
}

func TestAggregateSkipsEmptyGroup(t *testing.T) {
	require := require.New(t)

	table, err := timeseries.NewTable(
		timeseries.Column{Name: "empty", Values: []float64{math.NaN(), math.NaN()}},
		timeseries.Column{Name: "ok", Values: []float64{1, 2, 3}},
	)
	require.NoError(err)

	res, err := AggregateTable(table, nil)
	require.NoError(err)
	require.Len(res.Rows, 1)
	require.Equal("ok", res.Rows[0].Key)
	require.Equal([]string{"empty"}, res.Skipped())

	d := res.Diagnostics[0]
	require.Equal(Skipped, d.Kind)
	var ide *InsufficientDataError
	require.True(errors.As(d.Err, &ide))
	require.Equal("empty", ide.Group)
}

func TestAggregateSkipsFullyClippedGroup(t *testing.T) {
	require := require.New(t)

	table, err := timeseries.NewTable(
		timeseries.Column{Name: "split", Values: []float64{0, 10}},
		timeseries.Column{Name: "ok", Values: []float64{1, 2, 3}},
	)
	require.NoError(err)

	res, err := AggregateTable(table, &Config{SigmaClip: 0.5})
	require.NoError(err)
	require.Equal([]string{"split"}, res.Skipped())
	require.True(errors.Is(res.Diagnostics[0].Err, ErrInsufficientData))
}

func TestAggregateEmptyInput(t *testing.T) {
	_, err := AggregateSeries(&timeseries.Series{}, nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInsufficientData))

	_, err = AggregateTable(&timeseries.Table{}, nil)
	require.True(t, errors.Is(err, ErrInsufficientData))

	allMissing, _ := timeseries.NewTable(timeseries.Column{Name: "a", Values: []float64{math.NaN()}})
	_, err = AggregateTable(allMissing, nil)
	require.True(t, errors.Is(err, ErrInsufficientData))
}

func TestAggregateModeMismatch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModeColumn
	_, err := Aggregate(Input{Series: &timeseries.Series{}}, cfg)
	require.True(t, errors.Is(err, ErrModeMismatch))

	_, err = Aggregate(Input{Table: &timeseries.Table{}}, DefaultConfig())
	require.True(t, errors.Is(err, ErrModeMismatch))
}

func TestAggregateSeriesWithoutTimestamps(t *testing.T) {
	_, err := AggregateSeries(&timeseries.Series{Values: []float64{1, 2}}, nil)
	require.True(t, errors.Is(err, timeseries.ErrNoTimestamps))
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	require.Error(t, (&Config{Mode: Mode(9)}).Validate())
	require.Error(t, (&Config{Frequency: timeseries.Frequency(9)}).Validate())
	require.Error(t, (&Config{SigmaClip: math.NaN()}).Validate())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("column")
	require.NoError(t, err)
	require.Equal(t, ModeColumn, m)

	m, err = ParseMode("Time")
	require.NoError(t, err)
	require.Equal(t, ModeTime, m)

	_, err = ParseMode("rows")
	require.Error(t, err)
}

func randomSeries(seed int64) *timeseries.Series {
	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	var ts []time.Time
	var values []float64
	for i := 0; i < 3*365; i++ {
		ts = append(ts, start.AddDate(0, 0, i))
		v := 50 + 10*rng.NormFloat64()
		if rng.Intn(40) == 0 {
			v += 200
		}
		if rng.Intn(30) == 0 {
			v = math.NaN()
		}
		values = append(values, v)
	}
	return &timeseries.Series{Timestamps: ts, Values: values}
}

func TestAggregateIdempotent(t *testing.T) {
	series := randomSeries(3)
	input := series.Copy()

	cfg := DefaultConfig()
	cfg.Frequency = timeseries.Monthly

	first, err := AggregateSeries(series, cfg)
	require.NoError(t, err)
	second, err := AggregateSeries(series, cfg)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("aggregation not idempotent (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(input.Values, series.Values, cmp.Comparer(sameFloat)); diff != "" {
		t.Errorf("input series modified (-before +after):\n%s", diff)
	}
}

func TestAggregateOutliersOutsideFences(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Frequency = timeseries.Weekly
	res, err := AggregateSeries(randomSeries(11), cfg)
	require.NoError(t, err)

	for _, o := range res.Outliers {
		row, ok := res.Row(o.Group)
		require.True(t, ok)
		require.True(t, row.Stats.IsOutlier(o.Value), "%v inside fences of %s", o.Value, o.Group)
	}

	// Outliers follow row order.
	pos := make(map[string]int)
	for i, row := range res.Rows {
		pos[row.Key] = i
	}
	for i := 1; i < len(res.Outliers); i++ {
		require.LessOrEqual(t, pos[res.Outliers[i-1].Group], pos[res.Outliers[i].Group])
	}
}

func sameFloat(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}
