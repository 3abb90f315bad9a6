package boxplot

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInsufficientData is matched by every *InsufficientDataError.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrModeMismatch is returned when the input shape does not match the
	// configured grouping mode.
	ErrModeMismatch = errors.New("input does not match grouping mode")
)

// InsufficientDataError reports a sample, group or input with no usable
// values. Group is empty when the error concerns the whole input.
type InsufficientDataError struct {
	Group string
	Count int
}

func (e *InsufficientDataError) Error() string {
	if e.Group == "" {
		return fmt.Sprintf("insufficient data: %d usable values", e.Count)
	}
	return fmt.Sprintf("insufficient data in group %q: %d usable values", e.Group, e.Count)
}

// Is makes errors.Is(err, ErrInsufficientData) hold.
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// DiagnosticKind classifies a Diagnostic.
type DiagnosticKind int

const (
	// Skipped groups produced no row.
	Skipped DiagnosticKind = iota
	// Degenerate groups produced a row with collapsed fences (IQR of zero).
	Degenerate
)

func (k DiagnosticKind) String() string {
	switch k {
	case Skipped:
		return "skipped"
	case Degenerate:
		return "degenerate"
	}
	return fmt.Sprintf("DiagnosticKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k DiagnosticKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *DiagnosticKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "skipped":
		*k = Skipped
	case "degenerate":
		*k = Degenerate
	default:
		return errors.Errorf("unknown diagnostic kind %q", b)
	}
	return nil
}

// Diagnostic records why a group was skipped or flagged.
type Diagnostic struct {
	Group  string         `json:"group"`
	Kind   DiagnosticKind `json:"kind"`
	Reason string         `json:"reason"`
	Err    error          `json:"-"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s: %s", d.Kind, d.Group, d.Reason)
}
