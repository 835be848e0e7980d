package aggregate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompute_PastAndForecastWindows(t *testing.T) {
	history := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	forecast := []float64{10, 11, 12, 13, 14, 15, 16}

	got, err := Compute(history, forecast)
	require.NoError(t, err)
	require.Equal(t, "8", got.Past3.String())
	require.Equal(t, "6.5", got.Past6.String())
	require.Equal(t, "11", got.Forecast3.String())
	require.Equal(t, "12.5", got.Forecast6.String())
}

func TestMean_RoundsHalfAwayFromZero(t *testing.T) {
	// (1.00 + 1.01 + 1.0) / 3 = 1.00333.. -> 1.00
	m, err := Mean([]float64{1.00, 1.01, 1.0}, Window{Size: 3})
	require.NoError(t, err)
	require.Equal(t, "1", m.String())
	require.Equal(t, "1.00", m.StringFixed(Places))

	// 2.125 is exact in decimal; half rounds up.
	m, err = Mean([]float64{2.125}, Window{Size: 1})
	require.NoError(t, err)
	require.Equal(t, "2.13", m.String())

	m, err = Mean([]float64{-2.125}, Window{Size: 1})
	require.NoError(t, err)
	require.Equal(t, "-2.13", m.String())
}

func TestMean_ShortAndMissing(t *testing.T) {
	m, err := Mean([]float64{4, math.NaN()}, Window{Size: 6})
	require.NoError(t, err)
	require.Equal(t, "4", m.String())

	_, err = Mean(nil, Window{Size: 3})
	require.ErrorIs(t, err, ErrNoValues)

	_, err = Mean([]float64{1}, Window{})
	require.Error(t, err)

	_, err = Compute([]float64{1, 2, 3}, nil)
	require.ErrorIs(t, err, ErrNoValues)
}
