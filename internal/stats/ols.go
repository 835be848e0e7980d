// Package stats implements the descriptive and test statistics the forecast
// page reports: ordinary least squares, the Augmented Dickey-Fuller unit root
// test, classical seasonal decomposition and rolling statistics.
package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrInsufficientData is returned when a routine gets too few observations.
var ErrInsufficientData = errors.New("stats: insufficient data")

// OLSResult holds a fitted linear regression.
type OLSResult struct {
	Params []float64
	StdErr []float64
	SSR    float64
	NObs   int
	K      int
	LogLik float64
	AIC    float64
	BIC    float64
}

// TValue returns the t statistic of coefficient i.
func (r *OLSResult) TValue(i int) float64 { return r.Params[i] / r.StdErr[i] }

// OLS regresses y on the columns of x. x must have len(y) rows.
func OLS(x mat.Matrix, y []float64) (*OLSResult, error) {
	n, k := x.Dims()
	if n != len(y) {
		return nil, fmt.Errorf("ols: %d rows but %d observations", n, len(y))
	}
	if n <= k {
		return nil, fmt.Errorf("%w: %d observations for %d regressors", ErrInsufficientData, n, k)
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	var inv mat.Dense
	if err := inv.Inverse(&xtx); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, fmt.Errorf("ols: singular design: %w", err)
		}
	}

	yv := mat.NewVecDense(n, y)
	var xty mat.VecDense
	xty.MulVec(x.T(), yv)
	var beta mat.VecDense
	beta.MulVec(&inv, &xty)

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)
	ssr := 0.0
	for i := 0; i < n; i++ {
		e := y[i] - fitted.AtVec(i)
		ssr += e * e
	}

	s2 := ssr / float64(n-k)
	res := &OLSResult{
		Params: make([]float64, k),
		StdErr: make([]float64, k),
		SSR:    ssr,
		NObs:   n,
		K:      k,
	}
	for i := 0; i < k; i++ {
		res.Params[i] = beta.AtVec(i)
		res.StdErr[i] = math.Sqrt(s2 * inv.At(i, i))
	}
	nf := float64(n)
	res.LogLik = -nf / 2 * (math.Log(2*math.Pi) + math.Log(ssr/nf) + 1)
	res.AIC = -2*res.LogLik + 2*float64(k)
	res.BIC = -2*res.LogLik + math.Log(nf)*float64(k)
	return res, nil
}
