package timeseries

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Frequency is a calendar grouping frequency.
type Frequency int

const (
	Yearly Frequency = iota
	Monthly
	Weekly
)

// ParseFrequency parses a frequency name. Besides the long names it accepts
// the pandas offset aliases A, Y, M and W.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "year", "yearly", "a", "y":
		return Yearly, nil
	case "month", "monthly", "m":
		return Monthly, nil
	case "week", "weekly", "w":
		return Weekly, nil
	}
	return 0, errors.Errorf("unknown frequency %q", s)
}

func (f Frequency) String() string {
	switch f {
	case Yearly:
		return "year"
	case Monthly:
		return "month"
	case Weekly:
		return "week"
	}
	return fmt.Sprintf("Frequency(%d)", int(f))
}

// MarshalText implements encoding.TextMarshaler.
func (f Frequency) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Frequency) UnmarshalText(b []byte) error {
	v, err := ParseFrequency(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Start returns the first instant of the bucket containing t, in t's location.
// Weekly buckets are ISO weeks starting on Monday.
func (f Frequency) Start(t time.Time) time.Time {
	y, m, d := t.Date()
	switch f {
	case Monthly:
		return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	case Weekly:
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
	default:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, t.Location())
	}
}

// Key returns the label of the bucket containing t: "2006", "2006-01" or
// "2006-W02".
func (f Frequency) Key(t time.Time) string {
	start := f.Start(t)
	switch f {
	case Monthly:
		return start.Format("2006-01")
	case Weekly:
		y, w := start.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", y, w)
	default:
		return start.Format("2006")
	}
}
