package analytics

import (
	"math"
	"time"
)

// Clock supplies the "today" every analytics computation depends on.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// calendarDay drops the time of day, keeping the calendar date of t.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the whole calendar days from a to b.
func daysBetween(a, b time.Time) int {
	return int(math.Floor(calendarDay(b).Sub(calendarDay(a)).Hours() / 24))
}

func addDays(t time.Time, days int) time.Time {
	return calendarDay(t).AddDate(0, 0, days)
}
