package sarima

import "math"

// constrainStationary maps unrestricted reals to the coefficients of a
// stationary lag polynomial 1 - c1 B - ... - cn B^n, going through partial
// autocorrelations in (-1, 1) and the Durbin-Levinson recursion.
func constrainStationary(x []float64) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}
	y := make([][]float64, n)
	for k := range y {
		y[k] = make([]float64, n)
	}
	for k := 0; k < n; k++ {
		r := x[k] / math.Sqrt(1+x[k]*x[k])
		for i := 0; i < k; i++ {
			y[k][i] = y[k-1][i] + r*y[k-1][k-i-1]
		}
		y[k][k] = r
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = -y[n-1][i]
	}
	return out
}

// unconstrainStationary inverts constrainStationary. Coefficients outside the
// stationary region have no preimage and yield non-finite values.
func unconstrainStationary(c []float64) []float64 {
	n := len(c)
	if n == 0 {
		return nil
	}
	y := make([][]float64, n)
	for k := range y {
		y[k] = make([]float64, n)
	}
	for i := range c {
		y[n-1][i] = -c[i]
	}
	for k := n - 1; k > 0; k-- {
		den := 1 - y[k][k]*y[k][k]
		for i := 0; i < k; i++ {
			y[k-1][i] = (y[k][i] - y[k][k]*y[k][k-i-1]) / den
		}
	}
	out := make([]float64, n)
	for k := range out {
		r := y[k][k]
		out[k] = r / math.Sqrt(1-r*r)
	}
	return out
}

// constrainInvertible is the moving-average counterpart: the returned
// coefficients make 1 + c1 B + ... + cn B^n invertible.
func constrainInvertible(x []float64) []float64 {
	out := constrainStationary(x)
	for i := range out {
		out[i] = -out[i]
	}
	return out
}

func unconstrainInvertible(c []float64) []float64 {
	neg := make([]float64, len(c))
	for i := range c {
		neg[i] = -c[i]
	}
	return unconstrainStationary(neg)
}
