package series

import "time"

// MonthStart truncates t to the first day of its month in UTC.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns the last day of t's month in UTC.
func MonthEnd(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, 1, -1)
}

// AddMonths shifts t by n calendar months, clamping the day to the end of the
// target month (2020-01-31 + 1 month = 2020-02-29).
func AddMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, n, 0)
	last := target.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// MonthEndRange returns every month-end date in [start, end], matching a
// monthly "M" frequency calendar. The first element is the month end of
// start's month when that falls on or after start.
func MonthEndRange(start, end time.Time) []time.Time {
	var out []time.Time
	for d := MonthEnd(start); !d.After(end); d = MonthEnd(MonthStart(d).AddDate(0, 1, 0)) {
		if d.Before(start) {
			continue
		}
		out = append(out, d)
	}
	return out
}
