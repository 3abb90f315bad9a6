package timeseries

import (
	"github.com/pkg/errors"
)

// ErrDuplicateColumn is returned when a table already has a column of the
// same name.
var ErrDuplicateColumn = errors.New("duplicate column")

// Column is a named sequence of values. Columns of one table may differ in
// length.
type Column struct {
	Name   string
	Values []float64
}

// Table is an ordered collection of named numeric columns.
type Table struct {
	Columns []Column
}

// NewTable builds a table from columns, keeping their order.
func NewTable(columns ...Column) (*Table, error) {
	t := &Table{}
	for _, c := range columns {
		if err := t.AddColumn(c.Name, c.Values); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// AddColumn appends a column. The values are copied.
func (t *Table) AddColumn(name string, values []float64) error {
	if _, ok := t.Column(name); ok {
		return errors.Wrapf(ErrDuplicateColumn, "column %q", name)
	}
	v := make([]float64, len(values))
	copy(v, values)
	t.Columns = append(t.Columns, Column{Name: name, Values: v})
	return nil
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Len returns the length of the longest column.
func (t *Table) Len() int {
	n := 0
	for _, c := range t.Columns {
		if len(c.Values) > n {
			n = len(c.Values)
		}
	}
	return n
}
