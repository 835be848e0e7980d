package stats

import "math"

// RollingMean returns the trailing mean over window observations. The first
// window-1 entries are NaN, as is any window containing a NaN.
func RollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	sum, nans := 0.0, 0
	for i, v := range values {
		if math.IsNaN(v) {
			nans++
		} else {
			sum += v
		}
		if i >= window {
			old := values[i-window]
			if math.IsNaN(old) {
				nans--
			} else {
				sum -= old
			}
		}
		if i < window-1 || nans > 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(window)
	}
	return out
}

// Shift moves values k positions later, filling the vacated head with NaN.
// Negative k shifts earlier and fills the tail.
func Shift(values []float64, k int) []float64 {
	n := len(values)
	out := make([]float64, n)
	for i := range out {
		j := i - k
		if j < 0 || j >= n {
			out[i] = math.NaN()
			continue
		}
		out[i] = values[j]
	}
	return out
}

// DiffSeries returns x[t]-x[t-1] aligned with the input; the first entry and
// any difference touching a NaN are NaN.
func DiffSeries(values []float64) []float64 {
	prev := Shift(values, 1)
	out := make([]float64, len(values))
	for i := range values {
		out[i] = values[i] - prev[i]
	}
	return out
}

// DropNaN returns the non-NaN entries of values.
func DropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
