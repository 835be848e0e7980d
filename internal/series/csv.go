package series

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// CSVOptions controls how a price CSV is read.
type CSVOptions struct {
	Name        string // series name, default "Price"
	DateColumn  string // default "Date"
	ValueColumn string // default "Price"
	DateLayout  string // default "2006-01"
	Delimiter   rune   // default ','
}

// DefaultCSVOptions matches the monthly gold CSV layout: Date=YYYY-MM, Price=float.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Name:        "Price",
		DateColumn:  "Date",
		ValueColumn: "Price",
		DateLayout:  "2006-01",
		Delimiter:   ',',
	}
}

func (o CSVOptions) withDefaults() CSVOptions {
	def := DefaultCSVOptions()
	if o.Name == "" {
		o.Name = def.Name
	}
	if o.DateColumn == "" {
		o.DateColumn = def.DateColumn
	}
	if o.ValueColumn == "" {
		o.ValueColumn = def.ValueColumn
	}
	if o.DateLayout == "" {
		o.DateLayout = def.DateLayout
	}
	if o.Delimiter == 0 {
		o.Delimiter = def.Delimiter
	}
	return o
}

// ErrMissingColumn is returned when the header lacks the date or value column.
var ErrMissingColumn = errors.New("series: missing column")

// ParseCSV reads a header-first CSV into a monthly Series. Rows with an empty
// or NA price are skipped; unparsable dates or prices fail with the row number.
func ParseCSV(r io.Reader, opts CSVOptions) (*Series, error) {
	opts = opts.withDefaults()

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	dateIdx, valueIdx := -1, -1
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		switch {
		case strings.EqualFold(h, opts.DateColumn):
			dateIdx = i
		case strings.EqualFold(h, opts.ValueColumn):
			valueIdx = i
		}
	}
	if dateIdx < 0 {
		return nil, fmt.Errorf("%w %q", ErrMissingColumn, opts.DateColumn)
	}
	if valueIdx < 0 {
		return nil, fmt.Errorf("%w %q", ErrMissingColumn, opts.ValueColumn)
	}

	var obs []Observation
	row := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		if dateIdx >= len(record) || valueIdx >= len(record) {
			return nil, fmt.Errorf("row %d: expected at least %d fields, got %d", row, max(dateIdx, valueIdx)+1, len(record))
		}
		raw := strings.TrimSpace(record[valueIdx])
		switch strings.ToLower(raw) {
		case "", "na", "nan", "null":
			continue
		}
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: price %q: %w", row, raw, err)
		}
		date, err := parseDate(strings.TrimSpace(record[dateIdx]), opts.DateLayout)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		obs = append(obs, Observation{Date: date, Price: price})
	}
	return FromObservations(opts.Name, obs)
}

func parseDate(s, layout string) (time.Time, error) {
	for _, l := range []string{layout, "2006-01", "2006-01-02", "2006/01", "2006/01/02"} {
		if t, err := time.Parse(l, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q does not match layout %q", s, layout)
}
