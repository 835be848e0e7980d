package stats

import (
	"fmt"
	"math"
)

// Model selects how the seasonal component combines with the trend.
type Model int

const (
	Additive Model = iota
	Multiplicative
)

func (m Model) String() string {
	if m == Multiplicative {
		return "multiplicative"
	}
	return "additive"
}

// Decomposition splits a series into trend, seasonal and residual parts.
// Trend and Resid are NaN where the centered moving average is undefined.
type Decomposition struct {
	Model    string    `json:"model"`
	Period   int       `json:"period"`
	Observed []float64 `json:"observed"`
	Trend    []float64 `json:"trend"`
	Seasonal []float64 `json:"seasonal"`
	Resid    []float64 `json:"resid"`
}

// Decompose performs classical seasonal decomposition by moving averages.
// It needs at least two full periods of data.
func Decompose(values []float64, period int, model Model) (*Decomposition, error) {
	n := len(values)
	if period < 2 {
		return nil, fmt.Errorf("decompose: period must be >= 2, got %d", period)
	}
	if n < 2*period {
		return nil, fmt.Errorf("%w: decompose needs %d observations, got %d", ErrInsufficientData, 2*period, n)
	}
	if model == Multiplicative {
		for _, v := range values {
			if v <= 0 {
				return nil, fmt.Errorf("decompose: multiplicative model requires positive values")
			}
		}
	}

	trend := convolveCentered(values, maFilter(period))

	detrended := make([]float64, n)
	for i := range values {
		if model == Multiplicative {
			detrended[i] = values[i] / trend[i]
		} else {
			detrended[i] = values[i] - trend[i]
		}
	}

	means := make([]float64, period)
	for i := range means {
		sum, cnt := 0.0, 0
		for j := i; j < n; j += period {
			if !math.IsNaN(detrended[j]) {
				sum += detrended[j]
				cnt++
			}
		}
		means[i] = sum / float64(cnt)
	}
	center := 0.0
	for _, m := range means {
		center += m
	}
	center /= float64(period)
	for i := range means {
		if model == Multiplicative {
			means[i] /= center
		} else {
			means[i] -= center
		}
	}

	d := &Decomposition{
		Model:    model.String(),
		Period:   period,
		Observed: append([]float64(nil), values...),
		Trend:    trend,
		Seasonal: make([]float64, n),
		Resid:    make([]float64, n),
	}
	for i := range values {
		d.Seasonal[i] = means[i%period]
		if model == Multiplicative {
			d.Resid[i] = detrended[i] / d.Seasonal[i]
		} else {
			d.Resid[i] = detrended[i] - d.Seasonal[i]
		}
	}
	return d, nil
}

// maFilter returns the weights of a centered moving average of the given
// length; even periods use the 2xm filter with half weights at both ends.
func maFilter(period int) []float64 {
	if period%2 == 1 {
		f := make([]float64, period)
		for i := range f {
			f[i] = 1 / float64(period)
		}
		return f
	}
	f := make([]float64, period+1)
	for i := range f {
		f[i] = 1 / float64(period)
	}
	f[0] /= 2
	f[period] /= 2
	return f
}

func convolveCentered(values, filt []float64) []float64 {
	n := len(values)
	half := len(filt) / 2
	out := make([]float64, n)
	for t := range out {
		if t < half || t+half >= n {
			out[t] = math.NaN()
			continue
		}
		sum := 0.0
		for j, w := range filt {
			sum += w * values[t-half+j]
		}
		out[t] = sum
	}
	return out
}
