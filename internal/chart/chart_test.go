package chart_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"goldforecast/internal/chart"
	"goldforecast/internal/forecast"
	"goldforecast/internal/series"
)

func sampleReport() *forecast.Report {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	r := &forecast.Report{Title: "Gold Price Forecast till 2021", Confidence: 0.95}
	for i := 0; i < 24; i++ {
		r.History = append(r.History, forecast.HistoryPoint{Date: series.AddMonths(start, i), Price: 1500 + float64(i)})
	}
	last := r.History[len(r.History)-1].Date
	for i, d := range series.MonthEndRange(last, series.AddMonths(last, 6)) {
		m := 1524 + float64(i)
		r.Forecast = append(r.Forecast, forecast.ForecastPoint{Date: d, Mean: m, Lower: m - 10, Upper: m + 10})
	}
	return r
}

func TestPlotly_TracesAndLayout(t *testing.T) {
	t.Parallel()

	r := sampleReport()

	fig := chart.Plotly(r, chart.PlotlyOptions{})

	require.Len(t, fig.Data, 2)
	require.Equal(t, "Original", fig.Data[0].Name)
	require.Equal(t, "Forecast", fig.Data[1].Name)
	require.Len(t, fig.Data[0].X, 24)
	require.Equal(t, "2020-01-01", fig.Data[0].X[0])
	require.Len(t, fig.Data[1].Y, len(r.Forecast))
	require.Equal(t, r.Forecast[0].Date.Format("2006-01-02"), fig.Data[1].X[0])

	require.Equal(t, "Gold Price Forecast till 2021", fig.Layout.Title.Text)
	require.Equal(t, chart.DefaultWidth, fig.Layout.Width)
	require.Equal(t, chart.DefaultHeight, fig.Layout.Height)
	require.Equal(t, "#111111", fig.Layout.PaperBGColor)
	require.Equal(t, "#111111", fig.Layout.PlotBGColor)
}

func TestPlotly_IntervalBand(t *testing.T) {
	t.Parallel()

	fig := chart.Plotly(sampleReport(), chart.PlotlyOptions{Width: 800, Height: 300, Interval: true})

	require.Len(t, fig.Data, 4)
	require.Equal(t, "Upper", fig.Data[1].Name)
	require.Equal(t, "95% interval", fig.Data[2].Name)
	require.Equal(t, "tonexty", fig.Data[2].Fill)
	require.Equal(t, "Forecast", fig.Data[3].Name)
	require.Equal(t, 800, fig.Layout.Width)
	require.Equal(t, 300, fig.Layout.Height)
}

func TestFigure_JSON(t *testing.T) {
	t.Parallel()

	b, err := chart.Plotly(sampleReport(), chart.PlotlyOptions{}).JSON()
	require.NoError(t, err)

	var doc struct {
		Data []struct {
			Name string `json:"name"`
		} `json:"data"`
		Layout map[string]any `json:"layout"`
	}
	require.NoError(t, json.Unmarshal(b, &doc))
	require.Len(t, doc.Data, 2)
	require.Equal(t, float64(1200), doc.Layout["width"])
	require.Equal(t, float64(500), doc.Layout["height"])
}

func TestPNG_WritesImage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := chart.PNG(&buf, sampleReport(), 600, 250)

	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")), "missing PNG signature")
}

func TestPNG_EmptyReport(t *testing.T) {
	t.Parallel()

	err := chart.PNG(&bytes.Buffer{}, &forecast.Report{}, 0, 0)
	require.Error(t, err)
}
