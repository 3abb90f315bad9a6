package stats

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/goeda/timeseries"
)

// Matrix holds the statistics behind a scatter matrix: a histogram on the
// diagonal and a correlation for every pair of columns.
type Matrix struct {
	Names       []string     `json:"names"`
	Histograms  []*Histogram `json:"histograms"`
	Correlation [][]float64  `json:"correlation"`
}

// ScatterMatrix computes a histogram per column and the Pearson correlation
// of every column pair. Rows where either value is missing are ignored per
// pair; a pair with fewer than two complete rows has a NaN correlation.
func ScatterMatrix(table *timeseries.Table, bins int) (*Matrix, error) {
	if len(table.Columns) == 0 {
		return nil, errors.New("scatter matrix of empty table")
	}

	m := &Matrix{
		Names:       table.Names(),
		Histograms:  make([]*Histogram, len(table.Columns)),
		Correlation: make([][]float64, len(table.Columns)),
	}
	for i, c := range table.Columns {
		h, err := NewHistogram(c.Values, bins)
		if err != nil {
			return nil, errors.Wrapf(err, "column %q", c.Name)
		}
		m.Histograms[i] = h
		m.Correlation[i] = make([]float64, len(table.Columns))
	}

	for i, a := range table.Columns {
		m.Correlation[i][i] = 1
		for j := i + 1; j < len(table.Columns); j++ {
			r := pairCorrelation(a.Values, table.Columns[j].Values)
			m.Correlation[i][j] = r
			m.Correlation[j][i] = r
		}
	}
	return m, nil
}

func pairCorrelation(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var x, y []float64
	for i := 0; i < n; i++ {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		x = append(x, a[i])
		y = append(y, b[i])
	}
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}
