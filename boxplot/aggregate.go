package boxplot

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/sartorproj/goeda/timeseries"
)

// Mode selects how input data is split into groups.
type Mode int

const (
	// ModeTime groups a timestamped series by calendar bucket.
	ModeTime Mode = iota
	// ModeColumn groups a table by column.
	ModeColumn
)

// ParseMode parses "time" or "column".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "time", "series":
		return ModeTime, nil
	case "column", "columns", "table":
		return ModeColumn, nil
	}
	return 0, errors.Errorf("unknown grouping mode %q", s)
}

func (m Mode) String() string {
	switch m {
	case ModeTime:
		return "time"
	case ModeColumn:
		return "column"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Config holds configuration for grouped aggregation.
type Config struct {
	Mode      Mode                 `json:"mode"`       // Grouping mode (default: ModeTime)
	Frequency timeseries.Frequency `json:"frequency"`  // Calendar bucket in ModeTime (default: Yearly)
	SigmaClip float64              `json:"sigma_clip"` // Pre-filter threshold in standard deviations, <= 0 disables (default: 4)
}

// DefaultConfig returns the default aggregation configuration.
func DefaultConfig() *Config {
	return &Config{
		Mode:      ModeTime,
		Frequency: timeseries.Yearly,
		SigmaClip: 4,
	}
}

// Validate checks the configuration for unknown enum values and a
// non-finite clip threshold.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeTime, ModeColumn:
	default:
		return errors.Errorf("invalid mode %d", int(c.Mode))
	}
	switch c.Frequency {
	case timeseries.Yearly, timeseries.Monthly, timeseries.Weekly:
	default:
		return errors.Errorf("invalid frequency %d", int(c.Frequency))
	}
	if math.IsNaN(c.SigmaClip) || math.IsInf(c.SigmaClip, 0) {
		return errors.Errorf("invalid sigma clip %v", c.SigmaClip)
	}
	return nil
}

// Input is the data to aggregate. ModeTime reads Series, ModeColumn reads
// Table.
type Input struct {
	Series *timeseries.Series
	Table  *timeseries.Table
}

// Row is the boxplot summary of one group.
type Row struct {
	Key     string     `json:"key"`
	Count   int        `json:"count"`   // non-missing values in the group
	Clipped int        `json:"clipped"` // values removed by sigma clipping
	Stats   FenceStats `json:"stats"`
}

// Outlier is a value beyond the outer fences of its group.
type Outlier struct {
	Group string  `json:"group"`
	Value float64 `json:"value"`
}

// Result is the output of an aggregation. Rows are in group discovery order
// (chronological or column order) and Outliers follow the same group order.
type Result struct {
	Rows        []Row        `json:"rows"`
	Outliers    []Outlier    `json:"outliers"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Row returns the row with the given group key.
func (r *Result) Row(key string) (Row, bool) {
	for _, row := range r.Rows {
		if row.Key == key {
			return row, true
		}
	}
	return Row{}, false
}

// Skipped returns the keys of the groups that produced no row.
func (r *Result) Skipped() []string {
	var keys []string
	for _, d := range r.Diagnostics {
		if d.Kind == Skipped {
			keys = append(keys, d.Group)
		}
	}
	return keys
}

type group struct {
	key    string
	values []float64
}

// Aggregate splits the input according to cfg.Mode and computes fences per
// group. A group without usable values is skipped and recorded in
// Result.Diagnostics; the call only fails when the input is of the wrong
// shape or yields no row at all.
func Aggregate(in Input, cfg *Config) (*Result, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var groups []group
	switch cfg.Mode {
	case ModeTime:
		if in.Series == nil {
			return nil, errors.Wrap(ErrModeMismatch, "time mode requires a series")
		}
		buckets, err := in.Series.GroupBy(cfg.Frequency)
		if err != nil {
			return nil, errors.Wrap(err, "group series")
		}
		for _, b := range buckets {
			groups = append(groups, group{key: b.Key, values: b.Values})
		}
	case ModeColumn:
		if in.Table == nil {
			return nil, errors.Wrap(ErrModeMismatch, "column mode requires a table")
		}
		for _, c := range in.Table.Columns {
			groups = append(groups, group{key: c.Name, values: c.Values})
		}
	}

	return aggregateGroups(groups, cfg.SigmaClip)
}

// AggregateSeries aggregates a series by calendar bucket. cfg.Mode is
// ignored.
func AggregateSeries(series *timeseries.Series, cfg *Config) (*Result, error) {
	c := configOrDefault(cfg)
	c.Mode = ModeTime
	return Aggregate(Input{Series: series}, &c)
}

// AggregateTable aggregates a table by column. cfg.Mode and cfg.Frequency
// are ignored.
func AggregateTable(table *timeseries.Table, cfg *Config) (*Result, error) {
	c := configOrDefault(cfg)
	c.Mode = ModeColumn
	return Aggregate(Input{Table: table}, &c)
}

func configOrDefault(cfg *Config) Config {
	if cfg == nil {
		return *DefaultConfig()
	}
	return *cfg
}

func aggregateGroups(groups []group, k float64) (*Result, error) {
	if len(groups) == 0 {
		return nil, &InsufficientDataError{Count: 0}
	}

	res := &Result{Rows: []Row{}, Outliers: []Outlier{}}
	for _, g := range groups {
		row, outliers, diag := summarize(g, k)
		if diag != nil {
			res.Diagnostics = append(res.Diagnostics, *diag)
		}
		if row == nil {
			continue
		}
		res.Rows = append(res.Rows, *row)
		for _, v := range outliers {
			res.Outliers = append(res.Outliers, Outlier{Group: g.key, Value: v})
		}
	}

	if len(res.Rows) == 0 {
		return nil, errors.Wrapf(&InsufficientDataError{Count: 0},
			"all %d groups skipped", len(groups))
	}
	return res, nil
}

// summarize computes one group. A nil row means the group was skipped; the
// diagnostic then says why.
func summarize(g group, k float64) (*Row, []float64, *Diagnostic) {
	raw := timeseries.Finite(g.values)
	if len(raw) == 0 {
		err := &InsufficientDataError{Group: g.key, Count: 0}
		return nil, nil, &Diagnostic{Group: g.key, Kind: Skipped, Reason: "no values", Err: err}
	}

	clipped, removed := SigmaClip(raw, k)
	stats, outliers, err := ComputeFencesFrom(clipped, raw)
	if err != nil {
		var ide *InsufficientDataError
		if errors.As(err, &ide) {
			ide.Group = g.key
		}
		reason := fmt.Sprintf("all %d values removed by %g-sigma clip", len(raw), k)
		return nil, nil, &Diagnostic{Group: g.key, Kind: Skipped, Reason: reason, Err: err}
	}

	row := &Row{Key: g.key, Count: len(raw), Clipped: removed, Stats: *stats}

	var diag *Diagnostic
	switch {
	case len(clipped) == 1:
		diag = &Diagnostic{Group: g.key, Kind: Degenerate, Reason: "single value"}
	case stats.Degenerate():
		diag = &Diagnostic{Group: g.key, Kind: Degenerate, Reason: "zero interquartile range"}
	}
	return row, outliers, diag
}
