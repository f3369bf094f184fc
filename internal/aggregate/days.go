package aggregate

import (
	"time"

	jnow "github.com/jinzhu/now"
)

const day = 24 * time.Hour

func startOfDay(t time.Time) time.Time {
	return jnow.With(t).BeginningOfDay()
}

func endOfDay(t time.Time) time.Time {
	return jnow.With(t).EndOfDay()
}

// dayKey maps t to its calendar date in loc, expressed as UTC midnight so
// that the distance between two keys is always a whole number of days.
func dayKey(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the number of calendar days from a to b.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / day)
}

func sameDay(a, b time.Time) bool {
	loc := b.Location()
	return dayKey(a, loc).Equal(dayKey(b, loc))
}
