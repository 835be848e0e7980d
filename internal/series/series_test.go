package series

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func month(y int, m time.Month) time.Time { return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC) }

func TestParseCSV_DefaultLayout(t *testing.T) {
	t.Parallel()

	in := "Date,Price\n1950-01,34.73\n1950-02,34.73\n1950-03,34.73\n1950-04,34.73\n"
	s, err := ParseCSV(strings.NewReader(in), DefaultCSVOptions())
	require.NoError(t, err)
	require.Equal(t, 4, s.Len())
	require.Equal(t, month(1950, time.January), s.Dates[0])
	require.Equal(t, month(1950, time.April), s.Last().Date)
	require.InDelta(t, 34.73, s.Last().Price, 1e-9)
}

func TestParseCSV_SortsAndSkipsMissing(t *testing.T) {
	t.Parallel()

	in := "Price,Date\n3,2020-03\nNA,2020-04\n1,2020-01\n2,2020-02\n"
	s, err := ParseCSV(strings.NewReader(in), CSVOptions{})
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3}, s.Values)
}

func TestParseCSV_Errors(t *testing.T) {
	t.Parallel()

	_, err := ParseCSV(strings.NewReader(""), CSVOptions{})
	require.ErrorIs(t, err, ErrEmpty)

	_, err = ParseCSV(strings.NewReader("When,Price\n2020-01,1\n"), CSVOptions{})
	require.ErrorIs(t, err, ErrMissingColumn)

	_, err = ParseCSV(strings.NewReader("Date,Price\n2020-01,abc\n"), CSVOptions{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "row 2")

	_, err = ParseCSV(strings.NewReader("Date,Price\nJan 2020,1\n"), CSVOptions{})
	require.Error(t, err)

	_, err = ParseCSV(strings.NewReader("Date,Price\n2020-01,1\n2020-03,2\n"), CSVOptions{})
	require.True(t, errors.Is(err, ErrIrregular), "got %v", err)
}

func TestDiffAndTail(t *testing.T) {
	t.Parallel()

	v := []float64{1, 3, 6, 10, 15}
	require.Equal(t, []float64{2, 3, 4, 5}, Diff(v, 1))
	require.Equal(t, []float64{5, 7, 9}, Diff(v, 2))
	require.Nil(t, Diff(v, 5))

	s := &Series{Values: v}
	require.Equal(t, []float64{10, 15}, s.Tail(2))
	require.Equal(t, v, s.Tail(10))
	require.InDelta(t, 7.0, s.Mean(), 1e-12)
}

func TestMonthEndRange_MatchesMonthlyCalendar(t *testing.T) {
	t.Parallel()

	last := month(2020, time.July)
	dates := MonthEndRange(last, AddMonths(last, 48))
	require.Len(t, dates, 48)
	require.Equal(t, time.Date(2020, 7, 31, 0, 0, 0, 0, time.UTC), dates[0])
	require.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), dates[47])
	require.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), dates[43])
}

func TestAddMonths_ClampsDay(t *testing.T) {
	t.Parallel()

	got := AddMonths(time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC), 1)
	require.Equal(t, time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC), got)
}
