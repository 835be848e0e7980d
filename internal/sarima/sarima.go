// Package sarima fits seasonal ARIMA models by conditional sum of squares and
// produces multi-step forecasts with prediction intervals.
//
// The model is
//
//	φ(B) Φ(B^s) (1-B)^d (1-B^s)^D y_t = θ(B) Θ(B^s) ε_t
//
// without a trend term. Both sides are expanded into single lag polynomials,
// so differencing never has to be undone explicitly when forecasting.
package sarima

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrInsufficientData is returned by Fit when the series is too short for the order.
	ErrInsufficientData = errors.New("sarima: insufficient data for model order")
	// ErrNotFitted is returned when forecasting before a successful Fit.
	ErrNotFitted = errors.New("sarima: model not fitted")
	// ErrInvalidSteps is returned for a non-positive forecast horizon.
	ErrInvalidSteps = errors.New("sarima: steps must be at least 1")
	// ErrNonFinite is returned when the objective cannot be evaluated.
	ErrNonFinite = errors.New("sarima: non-finite objective")
)

// Order is the non-seasonal (p, d, q) order.
type Order struct {
	P int `json:"p"`
	D int `json:"d"`
	Q int `json:"q"`
}

// SeasonalOrder is the seasonal (P, D, Q, m) order.
type SeasonalOrder struct {
	P int `json:"P"`
	D int `json:"D"`
	Q int `json:"Q"`
	M int `json:"m"`
}

func (o Order) String() string { return fmt.Sprintf("(%d,%d,%d)", o.P, o.D, o.Q) }

func (s SeasonalOrder) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", s.P, s.D, s.Q, s.M)
}

// Options tune the optimiser. Zero values select the defaults.
type Options struct {
	MaxIterations  int     // default 500
	MaxEvaluations int     // default 5000
	Tolerance      float64 // relative objective change, default 1e-8
	ConvergeWindow int     // iterations without improvement before stopping, default 50
	InitialAR      float64 // starting value of the first AR coefficient, default 0.1
	InitialMA      float64 // starting value of the first MA coefficient, default 0.1
}

func (o Options) withDefaults() Options {
	if o.MaxIterations <= 0 {
		o.MaxIterations = 500
	}
	if o.MaxEvaluations <= 0 {
		o.MaxEvaluations = 5000
	}
	if o.Tolerance <= 0 {
		o.Tolerance = 1e-8
	}
	if o.InitialMA == 0 {
		o.InitialMA = 0.1
	}
	if o.InitialAR == 0 {
		o.InitialAR = 0.1
	}
	if o.ConvergeWindow <= 0 {
		o.ConvergeWindow = 50
	}
	return o
}

// Model is a SARIMA(p,d,q)(P,D,Q,m) model. A Model is not safe for
// concurrent use while fitting.
type Model struct {
	Order    Order
	Seasonal SeasonalOrder
	Options  Options

	AR  []float64 // φ
	MA  []float64 // θ
	SAR []float64 // Φ
	SMA []float64 // Θ

	Sigma2     float64
	LogLik     float64
	AIC        float64
	BIC        float64
	NObs       int // observations used by the likelihood
	Iterations int
	Evals      int
	Converged  bool
	Status     string

	fitted    bool
	y         []float64
	arPoly    []float64 // full AR side including differencing
	maPoly    []float64
	residuals []float64
}

// New creates an unfitted model.
func New(order Order, seasonal SeasonalOrder) *Model {
	if seasonal.M <= 1 {
		seasonal = SeasonalOrder{}
	}
	return &Model{Order: order, Seasonal: seasonal}
}

func (m *Model) nParams() int {
	return m.Order.P + m.Order.Q + m.Seasonal.P + m.Seasonal.Q
}

// burnIn is the number of leading observations consumed by the AR side.
func (m *Model) burnIn() int {
	s := m.Seasonal.M
	return m.Order.P + m.Order.D + s*(m.Seasonal.P+m.Seasonal.D)
}

// MinObservations is the shortest series Fit accepts.
func (m *Model) MinObservations() int {
	s := m.Seasonal.M
	return m.Order.P + m.Order.D + m.Order.Q + s*(m.Seasonal.P+m.Seasonal.D+m.Seasonal.Q) + 20
}

// unpack splits the unconstrained optimiser vector into constrained
// coefficient groups.
func (m *Model) unpack(x []float64) (ar, ma, sar, sma []float64) {
	p, q, sp := m.Order.P, m.Order.Q, m.Seasonal.P
	ar = constrainStationary(x[:p])
	ma = constrainInvertible(x[p : p+q])
	sar = constrainStationary(x[p+q : p+q+sp])
	sma = constrainInvertible(x[p+q+sp:])
	return ar, ma, sar, sma
}

func (m *Model) polys(ar, ma, sar, sma []float64) (arPoly, maPoly []float64) {
	s := m.Seasonal.M
	arPoly = lagPoly(ar, 1, -1)
	if len(sar) > 0 {
		arPoly = polyMul(arPoly, lagPoly(sar, s, -1))
	}
	arPoly = polyMul(arPoly, diffPoly(m.Order.D, m.Seasonal.D, s))
	maPoly = lagPoly(ma, 1, 1)
	if len(sma) > 0 {
		maPoly = polyMul(maPoly, lagPoly(sma, s, 1))
	}
	return arPoly, maPoly
}

// css returns the conditional residuals and their sum of squares. Residuals
// before the burn-in are zero.
func css(y, arPoly, maPoly []float64) ([]float64, float64) {
	start := len(arPoly) - 1
	e := make([]float64, len(y))
	sse := 0.0
	for t := start; t < len(y); t++ {
		v := y[t]
		for k := 1; k < len(arPoly); k++ {
			v += arPoly[k] * y[t-k]
		}
		for k := 1; k < len(maPoly) && t-k >= 0; k++ {
			v -= maPoly[k] * e[t-k]
		}
		e[t] = v
		sse += v * v
	}
	return e, sse
}

// Fit estimates the coefficients from values, oldest first. ctx cancels the
// optimisation between function evaluations.
func (m *Model) Fit(ctx context.Context, values []float64) error {
	if m.Order.P < 0 || m.Order.D < 0 || m.Order.Q < 0 ||
		m.Seasonal.P < 0 || m.Seasonal.D < 0 || m.Seasonal.Q < 0 {
		return fmt.Errorf("sarima: negative order %s%s", m.Order, m.Seasonal)
	}
	if len(values) < m.MinObservations() {
		return fmt.Errorf("%w: %s%s needs %d observations, got %d",
			ErrInsufficientData, m.Order, m.Seasonal, m.MinObservations(), len(values))
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("sarima: non-finite value at index %d", i)
		}
	}
	opts := m.Options.withDefaults()
	y := append([]float64(nil), values...)
	nEff := float64(len(y) - m.burnIn())

	objective := func(x []float64) float64 {
		arPoly, maPoly := m.polys(m.unpack(x))
		_, sse := css(y, arPoly, maPoly)
		if math.IsNaN(sse) {
			return math.Inf(1)
		}
		return sse / nEff
	}

	x0 := m.startParams(opts)
	iters, evals, converged, status := 0, 1, true, "no free parameters"
	if len(x0) > 0 {
		if f0 := objective(x0); math.IsInf(f0, 0) {
			return ErrNonFinite
		}
		problem := optimize.Problem{
			Func: objective,
			Status: func() (optimize.Status, error) {
				if err := ctx.Err(); err != nil {
					return optimize.Failure, err
				}
				return optimize.NotTerminated, nil
			},
		}
		settings := &optimize.Settings{
			MajorIterations: opts.MaxIterations,
			FuncEvaluations: opts.MaxEvaluations,
			Converger: &optimize.FunctionConverge{
				Absolute:   1e-12,
				Relative:   opts.Tolerance,
				Iterations: opts.ConvergeWindow,
			},
		}
		res, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{SimplexSize: 0.5})
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("sarima: fit cancelled: %w", ctxErr)
		}
		if res == nil {
			return fmt.Errorf("sarima: optimise: %w", err)
		}
		if err != nil && !limitStatus(res.Status) {
			return fmt.Errorf("sarima: optimise: %w", err)
		}
		x0 = res.Location.X
		iters, evals = res.Stats.MajorIterations, res.Stats.FuncEvaluations
		converged = !limitStatus(res.Status) && res.Status != optimize.Failure
		status = res.Status.String()
	}

	ar, ma, sar, sma := m.unpack(x0)
	arPoly, maPoly := m.polys(ar, ma, sar, sma)
	resid, sse := css(y, arPoly, maPoly)
	if math.IsNaN(sse) || math.IsInf(sse, 0) {
		return ErrNonFinite
	}

	m.AR, m.MA, m.SAR, m.SMA = ar, ma, sar, sma
	m.arPoly, m.maPoly = arPoly, maPoly
	m.y, m.residuals = y, resid
	m.NObs = int(nEff)
	m.Sigma2 = sse / nEff
	m.LogLik = -nEff / 2 * (math.Log(2*math.Pi*m.Sigma2) + 1)
	k := float64(m.nParams() + 1)
	m.AIC = -2*m.LogLik + 2*k
	m.BIC = -2*m.LogLik + k*math.Log(nEff)
	m.Iterations, m.Evals = iters, evals
	m.Converged, m.Status = converged, status
	m.fitted = true
	return nil
}

func (m *Model) startParams(opts Options) []float64 {
	fill := func(n int, v float64) []float64 {
		out := make([]float64, n)
		if n > 0 {
			out[0] = v
		}
		return out
	}
	var x []float64
	x = append(x, unconstrainStationary(fill(m.Order.P, opts.InitialAR))...)
	x = append(x, unconstrainInvertible(fill(m.Order.Q, opts.InitialMA))...)
	x = append(x, unconstrainStationary(fill(m.Seasonal.P, opts.InitialAR))...)
	x = append(x, unconstrainInvertible(fill(m.Seasonal.Q, opts.InitialMA))...)
	return x
}

func limitStatus(s optimize.Status) bool {
	switch s {
	case optimize.IterationLimit, optimize.FunctionEvaluationLimit, optimize.RuntimeLimit:
		return true
	}
	return false
}

// Forecast holds out-of-sample predictions and their intervals.
type Forecast struct {
	Mean       []float64 `json:"mean"`
	Lower      []float64 `json:"lower"`
	Upper      []float64 `json:"upper"`
	StdErr     []float64 `json:"std_err"`
	Confidence float64   `json:"confidence"`
}

// Forecast predicts the next steps values. Future shocks are set to zero and
// the interval half-width is z*σ*sqrt(Σψ_j²). Confidence outside (0, 1)
// falls back to 0.95.
func (m *Model) Forecast(steps int, confidence float64) (*Forecast, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if steps < 1 {
		return nil, ErrInvalidSteps
	}
	if confidence <= 0 || confidence >= 1 {
		confidence = 0.95
	}

	n := len(m.y)
	ext := make([]float64, n+steps)
	copy(ext, m.y)
	shocks := make([]float64, n+steps)
	copy(shocks, m.residuals)
	for t := n; t < n+steps; t++ {
		v := 0.0
		for k := 1; k < len(m.arPoly); k++ {
			v -= m.arPoly[k] * ext[t-k]
		}
		for k := 1; k < len(m.maPoly) && t-k >= 0; k++ {
			v += m.maPoly[k] * shocks[t-k]
		}
		ext[t] = v
	}

	psi := m.psiWeights(steps)
	z := distuv.UnitNormal.Quantile((1 + confidence) / 2)
	f := &Forecast{
		Mean:       ext[n:],
		Lower:      make([]float64, steps),
		Upper:      make([]float64, steps),
		StdErr:     make([]float64, steps),
		Confidence: confidence,
	}
	acc := 0.0
	for h := 0; h < steps; h++ {
		acc += psi[h] * psi[h]
		se := math.Sqrt(m.Sigma2 * acc)
		f.StdErr[h] = se
		f.Lower[h] = f.Mean[h] - z*se
		f.Upper[h] = f.Mean[h] + z*se
	}
	return f, nil
}

// psiWeights returns the first n coefficients of maPoly/arPoly.
func (m *Model) psiWeights(n int) []float64 {
	psi := make([]float64, n)
	for j := 0; j < n; j++ {
		v := 0.0
		if j < len(m.maPoly) {
			v = m.maPoly[j]
		}
		for k := 1; k <= j && k < len(m.arPoly); k++ {
			v -= m.arPoly[k] * psi[j-k]
		}
		psi[j] = v
	}
	return psi
}

// Residuals returns a copy of the in-sample one-step residuals; entries in
// the burn-in are zero.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	return append([]float64(nil), m.residuals...)
}

// FittedValues returns the in-sample one-step predictions, NaN in the burn-in.
func (m *Model) FittedValues() []float64 {
	if !m.fitted {
		return nil
	}
	out := make([]float64, len(m.y))
	start := m.burnIn()
	for t := range out {
		if t < start {
			out[t] = math.NaN()
			continue
		}
		out[t] = m.y[t] - m.residuals[t]
	}
	return out
}

// Summary describes a fitted model.
type Summary struct {
	Order      string             `json:"order"`
	Seasonal   string             `json:"seasonal_order"`
	Params     map[string]float64 `json:"params"`
	Sigma2     float64            `json:"sigma2"`
	LogLik     float64            `json:"log_likelihood"`
	AIC        float64            `json:"aic"`
	BIC        float64            `json:"bic"`
	NObs       int                `json:"nobs"`
	Iterations int                `json:"iterations"`
	Converged  bool               `json:"converged"`
	Status     string             `json:"status"`
}

// Summary returns nil before Fit.
func (m *Model) Summary() *Summary {
	if !m.fitted {
		return nil
	}
	params := make(map[string]float64, m.nParams())
	name := func(prefix string, c []float64, step int) {
		for i, v := range c {
			params[fmt.Sprintf("%s.L%d", prefix, (i+1)*step)] = v
		}
	}
	name("ar", m.AR, 1)
	name("ma", m.MA, 1)
	name("ar.S", m.SAR, m.Seasonal.M)
	name("ma.S", m.SMA, m.Seasonal.M)
	return &Summary{
		Order:      m.Order.String(),
		Seasonal:   m.Seasonal.String(),
		Params:     params,
		Sigma2:     m.Sigma2,
		LogLik:     m.LogLik,
		AIC:        m.AIC,
		BIC:        m.BIC,
		NObs:       m.NObs,
		Iterations: m.Iterations,
		Converged:  m.Converged,
		Status:     m.Status,
	}
}
