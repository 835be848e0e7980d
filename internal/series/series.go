// Package series holds the monthly price series the forecast pipeline works on.
package series

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var (
	// ErrEmpty is returned when a series has no observations.
	ErrEmpty = errors.New("series: no observations")
	// ErrIrregular is returned when consecutive observations are not one month apart.
	ErrIrregular = errors.New("series: observations are not monthly")
)

// Observation is a single dated price.
type Observation struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// Series is a monthly price series ordered by date.
type Series struct {
	Name   string
	Dates  []time.Time
	Values []float64
}

// FromObservations builds a Series sorted ascending by date. Later duplicates
// of the same month replace earlier ones.
func FromObservations(name string, obs []Observation) (*Series, error) {
	if len(obs) == 0 {
		return nil, ErrEmpty
	}
	byMonth := make(map[time.Time]float64, len(obs))
	for _, o := range obs {
		byMonth[MonthStart(o.Date)] = o.Price
	}
	dates := make([]time.Time, 0, len(byMonth))
	for d := range byMonth {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	s := &Series{Name: name, Dates: dates, Values: make([]float64, len(dates))}
	for i, d := range dates {
		s.Values[i] = byMonth[d]
	}
	if err := s.checkMonthly(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Series) checkMonthly() error {
	for i := 1; i < len(s.Dates); i++ {
		want := AddMonths(s.Dates[i-1], 1)
		if !s.Dates[i].Equal(want) {
			return fmt.Errorf("%w: %s follows %s", ErrIrregular,
				s.Dates[i].Format("2006-01"), s.Dates[i-1].Format("2006-01"))
		}
	}
	return nil
}

// Len returns the number of observations.
func (s *Series) Len() int { return len(s.Values) }

// Last returns the most recent observation.
func (s *Series) Last() Observation {
	n := len(s.Values)
	if n == 0 {
		return Observation{}
	}
	return Observation{Date: s.Dates[n-1], Price: s.Values[n-1]}
}

// Observations returns the series as a slice of dated prices.
func (s *Series) Observations() []Observation {
	out := make([]Observation, len(s.Values))
	for i := range s.Values {
		out[i] = Observation{Date: s.Dates[i], Price: s.Values[i]}
	}
	return out
}

// Tail returns a copy of the last n values (or all of them if n exceeds Len).
func (s *Series) Tail(n int) []float64 {
	if n > len(s.Values) {
		n = len(s.Values)
	}
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	copy(out, s.Values[len(s.Values)-n:])
	return out
}

// Mean returns the arithmetic mean of the values, NaN when empty.
func (s *Series) Mean() float64 { return Mean(s.Values) }

// Mean returns the arithmetic mean of values, ignoring NaN. It returns NaN
// when there is nothing to average.
func Mean(values []float64) float64 {
	sum, n := 0.0, 0
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// Diff returns the lag-k difference x[t]-x[t-k]. The result is k shorter.
func Diff(values []float64, k int) []float64 {
	if k <= 0 || len(values) <= k {
		return nil
	}
	out := make([]float64, len(values)-k)
	for i := k; i < len(values); i++ {
		out[i-k] = values[i] - values[i-k]
	}
	return out
}

// SeasonalDiff returns the lag-m difference of the series values.
func (s *Series) SeasonalDiff(m int) []float64 { return Diff(s.Values, m) }
