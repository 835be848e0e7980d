package sarima

// Polynomials in the backshift operator B are stored by ascending power:
// p[k] is the coefficient of B^k and p[0] is always 1.

func polyMul(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, x := range a {
		if x == 0 {
			continue
		}
		for j, y := range b {
			out[i+j] += x * y
		}
	}
	return out
}

// lagPoly returns 1 + sign*(c[0] B^step + c[1] B^(2*step) + ...).
func lagPoly(c []float64, step int, sign float64) []float64 {
	out := make([]float64, len(c)*step+1)
	out[0] = 1
	for i, v := range c {
		out[(i+1)*step] = sign * v
	}
	return out
}

// diffPoly returns (1-B)^d (1-B^s)^D.
func diffPoly(d, seasonalD, s int) []float64 {
	out := []float64{1}
	for i := 0; i < d; i++ {
		out = polyMul(out, []float64{1, -1})
	}
	if s > 0 {
		for i := 0; i < seasonalD; i++ {
			seasonal := make([]float64, s+1)
			seasonal[0], seasonal[s] = 1, -1
			out = polyMul(out, seasonal)
		}
	}
	return out
}
