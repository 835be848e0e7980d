package stats

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ADFResult is the outcome of an Augmented Dickey-Fuller test with a constant.
// The null hypothesis is a unit root; a small p-value suggests stationarity.
type ADFResult struct {
	Statistic      float64            `json:"statistic"`
	PValue         float64            `json:"p_value"`
	UsedLag        int                `json:"used_lag"`
	NObs           int                `json:"nobs"`
	CriticalValues map[string]float64 `json:"critical_values"`
	Autolag        string             `json:"autolag,omitempty"`
	ICBest         float64            `json:"ic_best,omitempty"`
}

// Stationary reports whether the unit root is rejected at the 5% level.
func (r *ADFResult) Stationary() bool { return r.PValue < 0.05 }

// ADF runs the Augmented Dickey-Fuller test on values with a constant term.
//
// A negative maxLag selects the default 12*(n/100)^(1/4). autolag is "AIC",
// "BIC" or empty; when set, the lag length in [0, maxLag] minimising the
// criterion on a common sample is used, otherwise maxLag is used as given.
func ADF(values []float64, maxLag int, autolag string) (*ADFResult, error) {
	n := len(values)
	const ntrend = 1
	limit := n/2 - ntrend - 1
	if limit < 0 {
		return nil, fmt.Errorf("%w: adf needs more than %d observations", ErrInsufficientData, n)
	}
	if maxLag < 0 {
		maxLag = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	maxLag = min(maxLag, limit)

	autolag = strings.ToUpper(strings.TrimSpace(autolag))
	xdiff := make([]float64, n-1)
	for i := 1; i < n; i++ {
		xdiff[i-1] = values[i] - values[i-1]
	}

	res := &ADFResult{Autolag: autolag}
	usedLag := maxLag
	if autolag != "" {
		best, ic, err := selectLag(values, xdiff, maxLag, autolag)
		if err != nil {
			return nil, err
		}
		usedLag, res.ICBest = best, ic
	}

	// Final regression on the largest sample the chosen lag allows, with the
	// lagged level first so its t value is the test statistic.
	x, y := adfDesign(values, xdiff, usedLag, false)
	fit, err := OLS(x, y)
	if err != nil {
		return nil, fmt.Errorf("adf regression: %w", err)
	}
	res.Statistic = fit.TValue(0)
	res.UsedLag = usedLag
	res.NObs = len(y)
	res.PValue = MacKinnonP(res.Statistic)
	res.CriticalValues = MacKinnonCrit(res.NObs)
	return res, nil
}

// selectLag fits every lag length on the sample implied by maxLag and returns
// the one with the smallest information criterion.
func selectLag(values, xdiff []float64, maxLag int, criterion string) (int, float64, error) {
	full, y := adfDesign(values, xdiff, maxLag, true)
	rows, _ := full.Dims()
	bestLag, bestIC := -1, math.Inf(1)
	for lag := 0; lag <= maxLag; lag++ {
		fit, err := OLS(full.Slice(0, rows, 0, lag+2), y)
		if err != nil {
			return 0, 0, fmt.Errorf("adf lag %d: %w", lag, err)
		}
		var ic float64
		switch criterion {
		case "AIC":
			ic = fit.AIC
		case "BIC":
			ic = fit.BIC
		default:
			return 0, 0, fmt.Errorf("adf: unknown autolag %q", criterion)
		}
		if ic < bestIC {
			bestLag, bestIC = lag, ic
		}
	}
	return bestLag, bestIC, nil
}

// adfDesign builds the regression of Δy_t on y_{t-1} and lag lagged
// differences. With constFirst the columns are [1, y_{t-1}, Δy_{t-1}, ...],
// otherwise [y_{t-1}, Δy_{t-1}, ..., 1].
func adfDesign(values, xdiff []float64, lag int, constFirst bool) (*mat.Dense, []float64) {
	nobs := len(xdiff) - lag
	cols := lag + 2
	x := mat.NewDense(nobs, cols, nil)
	y := make([]float64, nobs)
	for r := 0; r < nobs; r++ {
		t := r + lag
		y[r] = xdiff[t]
		row := make([]float64, 0, cols)
		if constFirst {
			row = append(row, 1)
		}
		row = append(row, values[t])
		for j := 1; j <= lag; j++ {
			row = append(row, xdiff[t-j])
		}
		if !constFirst {
			row = append(row, 1)
		}
		x.SetRow(r, row)
	}
	return x, y
}

// MacKinnon (1994) response surface for the constant-only, single series
// case, as used for approximate ADF p-values.
const (
	tauMaxC  = 2.74
	tauMinC  = -18.83
	tauStarC = -1.61
)

var (
	tauSmallPC = []float64{2.1659, 1.4412, 0.038269}
	tauLargePC = []float64{1.7339, 0.93202, -0.12745, -0.010368}
)

// MacKinnonP returns the approximate p-value of an ADF statistic for a
// regression with a constant.
func MacKinnonP(stat float64) float64 {
	switch {
	case stat > tauMaxC:
		return 1
	case stat < tauMinC:
		return 0
	}
	coef := tauLargePC
	if stat <= tauStarC {
		coef = tauSmallPC
	}
	// Horner evaluation of c0 + c1*x + c2*x^2 (+ c3*x^3).
	v := 0.0
	for i := len(coef) - 1; i >= 0; i-- {
		v = v*stat + coef[i]
	}
	return distuv.UnitNormal.CDF(v)
}

// MacKinnon (2010) finite-sample critical value coefficients, constant only.
var tauC2010 = map[string][4]float64{
	"1%":  {-3.43035, -6.5393, -16.786, -79.433},
	"5%":  {-2.86154, -2.8903, -4.234, -40.040},
	"10%": {-2.56677, -1.5384, -2.809, 0},
}

// MacKinnonCrit returns the 1%, 5% and 10% critical values for nobs observations.
func MacKinnonCrit(nobs int) map[string]float64 {
	out := make(map[string]float64, len(tauC2010))
	n := float64(nobs)
	for level, b := range tauC2010 {
		out[level] = b[0] + b[1]/n + b[2]/(n*n) + b[3]/(n*n*n)
	}
	return out
}
