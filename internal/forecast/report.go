package forecast

import (
	"math"
	"strconv"
	"time"

	"goldforecast/internal/aggregate"
	"goldforecast/internal/sarima"
	"goldforecast/internal/stats"
)

// Number is a float that encodes NaN and infinities as JSON null.
type Number float64

func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

// Valid reports whether n is a finite number.
func (n Number) Valid() bool {
	f := float64(n)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// HistoryPoint is one observed month with its derived statistics.
type HistoryPoint struct {
	Date        time.Time `json:"date"`
	Price       float64   `json:"price"`
	RollingMean Number    `json:"rolling_mean"`
	RollingDiff Number    `json:"rolling_mean_diff"`
	Trend       Number    `json:"trend"`
	Seasonal    Number    `json:"seasonal"`
	Resid       Number    `json:"resid"`
}

// ForecastPoint is one forecast month.
type ForecastPoint struct {
	Date  time.Time `json:"date"`
	Mean  float64   `json:"mean"`
	Lower float64   `json:"lower"`
	Upper float64   `json:"upper"`
}

// Report is the full result of one pipeline run.
type Report struct {
	Asset       string             `json:"asset"`
	Title       string             `json:"title"`
	Source      string             `json:"source"`
	GeneratedAt time.Time          `json:"generated_at"`
	Confidence  float64            `json:"confidence"`
	History     []HistoryPoint     `json:"history"`
	Forecast    []ForecastPoint    `json:"forecast"`
	ADF         *stats.ADFResult   `json:"adf"`
	Model       *sarima.Summary    `json:"model"`
	Averages    aggregate.Averages `json:"averages"`
}

// Prices returns the observed values oldest first.
func (r *Report) Prices() []float64 {
	out := make([]float64, len(r.History))
	for i, h := range r.History {
		out[i] = h.Price
	}
	return out
}

// ForecastMeans returns the point forecasts in order.
func (r *Report) ForecastMeans() []float64 {
	out := make([]float64, len(r.Forecast))
	for i, f := range r.Forecast {
		out[i] = f.Mean
	}
	return out
}

// Summary is the compact form printed by the CLI.
type Summary struct {
	Title          string             `json:"title"`
	Source         string             `json:"source"`
	Observations   int                `json:"observations"`
	LastDate       string             `json:"last_date"`
	LastPrice      float64            `json:"last_price"`
	ForecastMonths int                `json:"forecast_months"`
	ForecastEnd    string             `json:"forecast_end"`
	ADFStatistic   float64            `json:"adf_statistic"`
	ADFPValue      float64            `json:"adf_p_value"`
	Stationary     bool               `json:"stationary"`
	AIC            float64            `json:"aic"`
	Converged      bool               `json:"converged"`
	Averages       aggregate.Averages `json:"averages"`
}

func (r *Report) Summary() Summary {
	s := Summary{
		Title:          r.Title,
		Source:         r.Source,
		Observations:   len(r.History),
		ForecastMonths: len(r.Forecast),
		Averages:       r.Averages,
	}
	if n := len(r.History); n > 0 {
		s.LastDate = r.History[n-1].Date.Format("2006-01")
		s.LastPrice = r.History[n-1].Price
	}
	if n := len(r.Forecast); n > 0 {
		s.ForecastEnd = r.Forecast[n-1].Date.Format("2006-01-02")
	}
	if r.ADF != nil {
		s.ADFStatistic, s.ADFPValue, s.Stationary = r.ADF.Statistic, r.ADF.PValue, r.ADF.Stationary()
	}
	if r.Model != nil {
		s.AIC, s.Converged = r.Model.AIC, r.Model.Converged
	}
	return s
}
