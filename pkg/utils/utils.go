package utils

import "time"

// DateLayout is the wire format used for calendar dates in query strings and JSON.
const DateLayout = "2006-01-02"

// TruncateToDate drops the time of day, keeping the calendar date in UTC.
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date for the given clock.
func Today(now func() time.Time) time.Time {
	return TruncateToDate(now())
}

// DaysBetween returns the number of whole calendar days from start to end.
// The result is negative when end is before start.
func DaysBetween(start, end time.Time) int {
	duration := TruncateToDate(end).Sub(TruncateToDate(start))
	return int(duration.Hours() / 24)
}

// AddMonths moves a date forward by the given number of months.
// Day overflow normalizes the way time.AddDate does (Jan 31 + 1 month = Mar 3).
func AddMonths(date time.Time, months int) time.Time {
	return TruncateToDate(date).AddDate(0, months, 0)
}

// AddDays moves a date by the given number of days.
func AddDays(date time.Time, days int) time.Time {
	return TruncateToDate(date).AddDate(0, 0, days)
}

// SameDate reports whether two instants fall on the same UTC calendar date.
func SameDate(a, b time.Time) bool {
	return TruncateToDate(a).Equal(TruncateToDate(b))
}

// ParseDate parses a YYYY-MM-DD string; an empty string yields the fallback.
func ParseDate(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return TruncateToDate(fallback), nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return TruncateToDate(t), nil
}
