package timeseries

import (
	"bufio"
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// CSVOptions holds options for CSV loading.
type CSVOptions struct {
	DateColumn  string // Column name for dates (optional)
	ValueColumn string // Column name for values (default: "y")
	DateFormat  string // Date format (default: "2006-01-02")
	HasHeader   bool   // Whether CSV has header row (default: true)
	Delimiter   rune   // Field delimiter (default: ',')
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		ValueColumn: "y",
		DateFormat:  "2006-01-02",
		HasHeader:   true,
		Delimiter:   ',',
	}
}

var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02-Jan-2006",
	"2006-01",
	"2006",
}

// LoadCSV loads a time series from a CSV file.
func LoadCSV(filename string, opts *CSVOptions) (*Series, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "open csv")
	}
	defer file.Close()

	s, err := LoadCSVFromReader(file, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", filename)
	}
	return s, nil
}

// LoadCSVFromReader loads a time series from an io.Reader. Rows whose value
// is empty, NA, NaN, null or unparsable are skipped. If every kept row has a
// parsable date the series carries timestamps, otherwise it has none.
func LoadCSVFromReader(r io.Reader, opts *CSVOptions) (*Series, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.TrimLeadingSpace = true

	valueIdx, dateIdx := -1, -1
	name := opts.ValueColumn

	if opts.HasHeader {
		header, err := reader.Read()
		if err != nil {
			return nil, errors.Wrap(err, "read header")
		}

		for i, h := range header {
			h = cleanCell(h)
			switch {
			case h == opts.ValueColumn || (opts.ValueColumn == "" && (h == "y" || h == "value" || h == "Value")):
				valueIdx = i
				name = h
			case opts.DateColumn != "" && h == opts.DateColumn:
				dateIdx = i
			case h == "ds" || h == "date" || h == "Date" || h == "Month" || h == "Year":
				if dateIdx == -1 {
					dateIdx = i
				}
			}
		}

		if valueIdx == -1 {
			if opts.ValueColumn != "" && opts.ValueColumn != "y" {
				return nil, errors.Errorf("value column %q not found", opts.ValueColumn)
			}
			valueIdx = len(header) - 1
			name = cleanCell(header[valueIdx])
		}
	} else {
		dateIdx = 0
		valueIdx = 1
	}

	var values []float64
	var timestamps []time.Time
	datesOK := dateIdx >= 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read record")
		}
		if valueIdx >= len(record) {
			continue
		}

		val, ok := parseValue(record[valueIdx])
		if !ok {
			continue
		}
		values = append(values, val)

		if datesOK {
			ts, ok := parseDate(record, dateIdx, opts.DateFormat)
			if !ok {
				datesOK = false
				continue
			}
			timestamps = append(timestamps, ts)
		}
	}

	if len(values) == 0 {
		return nil, errors.New("no valid data found in CSV")
	}

	s := &Series{Values: values, Name: name}
	if datesOK && len(timestamps) == len(values) {
		s.Timestamps = timestamps
	}
	return s, nil
}

// LoadTableCSV loads every numeric column of a CSV file into a table.
func LoadTableCSV(filename string) (*Table, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "open csv")
	}
	defer file.Close()

	t, err := LoadTableCSVFromReader(file, ',')
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", filename)
	}
	return t, nil
}

// LoadTableCSVFromReader reads a CSV with a header row into a table, one
// column per header field in file order. Empty, NA or unparsable cells are
// stored as NaN; a column without a single numeric cell is left out.
func LoadTableCSVFromReader(r io.Reader, delimiter rune) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}

	cols := make([][]float64, len(header))
	numeric := make([]bool, len(header))
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read record")
		}
		for i := range header {
			v := math.NaN()
			if i < len(record) {
				if x, ok := parseValue(record[i]); ok {
					v = x
					numeric[i] = true
				}
			}
			cols[i] = append(cols[i], v)
		}
	}

	t := &Table{}
	for i, h := range header {
		if !numeric[i] {
			continue
		}
		if err := t.AddColumn(cleanCell(h), cols[i]); err != nil {
			return nil, err
		}
	}
	if len(t.Columns) == 0 {
		return nil, errors.New("no numeric columns found in CSV")
	}
	return t, nil
}

// SaveCSV saves a time series to a CSV file.
func SaveCSV(series *Series, filename string, includeIndex bool) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "create csv")
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	withDates := series.HasTimestamps()

	switch {
	case includeIndex && withDates:
		writer.WriteString("ds,y\n")
	case includeIndex:
		writer.WriteString("index,y\n")
	default:
		writer.WriteString("y\n")
	}

	for i, v := range series.Values {
		if includeIndex {
			if withDates {
				writer.WriteString(series.Timestamps[i].Format("2006-01-02"))
			} else {
				writer.WriteString(strconv.Itoa(i + 1))
			}
			writer.WriteString(",")
		}
		if !math.IsNaN(v) {
			writer.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		}
		writer.WriteString("\n")
	}

	return errors.Wrap(writer.Flush(), "flush csv")
}

func cleanCell(s string) string {
	return strings.TrimSpace(strings.Trim(s, "\""))
}

func parseValue(cell string) (float64, bool) {
	s := cleanCell(cell)
	switch s {
	case "", "NA", "NaN", "nan", "null", "NULL":
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func parseDate(record []string, idx int, preferred string) (time.Time, bool) {
	if idx >= len(record) {
		return time.Time{}, false
	}
	s := cleanCell(record[idx])
	if preferred != "" {
		if ts, err := time.Parse(preferred, s); err == nil {
			return ts, true
		}
	}
	for _, f := range dateFormats {
		if ts, err := time.Parse(f, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
