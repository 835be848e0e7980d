// Package aggregate turns history and forecast values into the rounded
// headline averages shown next to the chart.
package aggregate

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Places is the number of decimal places averages are rounded to.
const Places = 2

// ErrNoValues is returned when a window has nothing to average.
var ErrNoValues = errors.New("aggregate: no values")

// Averages are the past and forecast 3 and 6 month means.
type Averages struct {
	Past3     decimal.Decimal `json:"past_3m"`
	Past6     decimal.Decimal `json:"past_6m"`
	Forecast3 decimal.Decimal `json:"forecast_3m"`
	Forecast6 decimal.Decimal `json:"forecast_6m"`
}

// Window selects which end of a slice a mean is taken over.
type Window struct {
	Size int
	Head bool // first Size values instead of the last Size
}

// Mean averages the values selected by w and rounds half away from zero.
// A window larger than values averages all of them. NaN entries are skipped.
func Mean(values []float64, w Window) (decimal.Decimal, error) {
	if w.Size <= 0 {
		return decimal.Zero, fmt.Errorf("aggregate: window size %d", w.Size)
	}
	sel := values
	if len(sel) > w.Size {
		if w.Head {
			sel = sel[:w.Size]
		} else {
			sel = sel[len(sel)-w.Size:]
		}
	}
	ds := make([]decimal.Decimal, 0, len(sel))
	for _, v := range sel {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		ds = append(ds, decimal.NewFromFloat(v))
	}
	if len(ds) == 0 {
		return decimal.Zero, ErrNoValues
	}
	return decimal.Avg(ds[0], ds[1:]...).Round(Places), nil
}

// WindowAverages returns the rounded mean for each window in order.
func WindowAverages(values []float64, windows ...Window) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(windows))
	for i, w := range windows {
		m, err := Mean(values, w)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", w.Size, err)
		}
		out[i] = m
	}
	return out, nil
}

// Compute returns the averages of the last 3 and 6 history values and the
// first 3 and 6 forecast values.
func Compute(history, forecast []float64) (Averages, error) {
	past, err := WindowAverages(history, Window{Size: 3}, Window{Size: 6})
	if err != nil {
		return Averages{}, fmt.Errorf("past: %w", err)
	}
	fut, err := WindowAverages(forecast, Window{Size: 3, Head: true}, Window{Size: 6, Head: true})
	if err != nil {
		return Averages{}, fmt.Errorf("forecast: %w", err)
	}
	return Averages{Past3: past[0], Past6: past[1], Forecast3: fut[0], Forecast6: fut[1]}, nil
}
