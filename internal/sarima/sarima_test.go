package sarima

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func seasonalSeries(n int, seed uint64) []float64 {
	r := rand.New(rand.NewPCG(seed, seed+1))
	v := make([]float64, n)
	for i := range v {
		v[i] = 100 + 0.5*float64(i) + 10*math.Sin(2*math.Pi*float64(i)/12) + r.NormFloat64()
	}
	return v
}

func TestPolynomialExpansion(t *testing.T) {
	t.Parallel()

	require.Equal(t, []float64{1, -2, 1}, diffPoly(2, 0, 0))
	d := diffPoly(1, 1, 4)
	require.Equal(t, []float64{1, -1, 0, 0, -1, 1}, d)

	// (1 - 0.5B)(1 - 0.2B^2) = 1 - 0.5B - 0.2B^2 + 0.1B^3
	got := polyMul(lagPoly([]float64{0.5}, 1, -1), lagPoly([]float64{0.2}, 2, -1))
	require.InDeltaSlice(t, []float64{1, -0.5, -0.2, 0.1}, got, 1e-12)
}

func TestTransformRoundTrip(t *testing.T) {
	t.Parallel()

	x := []float64{0.3, -1.2, 2.5}
	c := constrainStationary(x)
	require.InDeltaSlice(t, x, unconstrainStationary(c), 1e-9)

	m := constrainInvertible(x)
	require.InDeltaSlice(t, x, unconstrainInvertible(m), 1e-9)

	for _, v := range []float64{-50, -1, 0, 1, 50} {
		phi := constrainStationary([]float64{v})
		require.Less(t, math.Abs(phi[0]), 1.0)
	}
}

func TestForecast_RandomWalk(t *testing.T) {
	t.Parallel()

	v := seasonalSeries(60, 9)
	m := New(Order{D: 1}, SeasonalOrder{})
	require.NoError(t, m.Fit(context.Background(), v))

	sse := 0.0
	for i := 1; i < len(v); i++ {
		d := v[i] - v[i-1]
		sse += d * d
	}
	require.InDelta(t, sse/float64(len(v)-1), m.Sigma2, 1e-9)
	require.Equal(t, len(v)-1, m.NObs)

	f, err := m.Forecast(5, 0.95)
	require.NoError(t, err)
	for h := 0; h < 5; h++ {
		require.InDelta(t, v[len(v)-1], f.Mean[h], 1e-9)
		require.InDelta(t, math.Sqrt(m.Sigma2*float64(h+1)), f.StdErr[h], 1e-9)
	}
	require.InDelta(t, 1.959964, (f.Upper[0]-f.Mean[0])/f.StdErr[0], 1e-5)
}

func TestForecast_SeasonalNaive(t *testing.T) {
	t.Parallel()

	v := seasonalSeries(60, 4)
	m := New(Order{}, SeasonalOrder{D: 1, M: 12})
	require.NoError(t, m.Fit(context.Background(), v))

	f, err := m.Forecast(24, 0.9)
	require.NoError(t, err)
	n := len(v)
	for h := 0; h < 24; h++ {
		require.InDelta(t, v[n-12+h%12], f.Mean[h], 1e-9)
	}
	require.InDelta(t, f.StdErr[0], f.StdErr[11], 1e-12)
	require.InDelta(t, f.StdErr[0]*math.Sqrt2, f.StdErr[12], 1e-9)
}

func TestFit_Airline(t *testing.T) {
	t.Parallel()

	v := seasonalSeries(144, 21)
	m := New(Order{P: 1, D: 1, Q: 1}, SeasonalOrder{P: 1, D: 1, Q: 1, M: 12})
	require.NoError(t, m.Fit(context.Background(), v))

	for _, c := range [][]float64{m.AR, m.MA, m.SAR, m.SMA} {
		require.Len(t, c, 1)
		require.Less(t, math.Abs(c[0]), 1.0)
	}
	require.Greater(t, m.Sigma2, 0.0)
	require.False(t, math.IsNaN(m.AIC))
	require.Equal(t, 144-26, m.NObs)

	f, err := m.Forecast(48, 0.95)
	require.NoError(t, err)
	require.Len(t, f.Mean, 48)
	for h := 0; h < 48; h++ {
		if h < 12 {
			truth := 100 + 0.5*float64(144+h) + 10*math.Sin(2*math.Pi*float64(144+h)/12)
			require.InDelta(t, truth, f.Mean[h], 6, "h=%d", h)
		}
		require.Less(t, f.Lower[h], f.Mean[h])
		require.Greater(t, f.Upper[h], f.Mean[h])
		if h > 0 {
			require.GreaterOrEqual(t, f.StdErr[h], f.StdErr[h-1]-1e-12)
		}
	}

	s := m.Summary()
	require.Equal(t, "(1,1,1)", s.Order)
	require.Equal(t, "(1,1,1,12)", s.Seasonal)
	require.Contains(t, s.Params, "ar.L1")
	require.Contains(t, s.Params, "ma.S.L12")

	fitted := m.FittedValues()
	require.True(t, math.IsNaN(fitted[25]))
	require.False(t, math.IsNaN(fitted[26]))
}

func TestErrors(t *testing.T) {
	t.Parallel()

	m := New(Order{P: 1, D: 1, Q: 1}, SeasonalOrder{P: 1, D: 1, Q: 1, M: 12})
	_, err := m.Forecast(3, 0.95)
	require.ErrorIs(t, err, ErrNotFitted)
	require.Nil(t, m.Summary())

	err = m.Fit(context.Background(), make([]float64, 30))
	require.ErrorIs(t, err, ErrInsufficientData)

	v := seasonalSeries(100, 2)
	v[50] = math.NaN()
	require.Error(t, m.Fit(context.Background(), v))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, m.Fit(ctx, seasonalSeries(100, 2)), context.Canceled)

	rw := New(Order{D: 1}, SeasonalOrder{})
	require.NoError(t, rw.Fit(context.Background(), seasonalSeries(40, 3)))
	_, err = rw.Forecast(0, 0.95)
	require.ErrorIs(t, err, ErrInvalidSteps)
}
