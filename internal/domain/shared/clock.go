package shared

import "time"

// Clock supplies the current time. Expiration checks and settlement
// timestamps take time from a Clock rather than calling time.Now directly,
// so tests can pin the calendar day.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by the wall clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the same instant.
type FixedClock struct {
	Instant time.Time
}

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time {
	return c.Instant
}

// StartOfDay truncates t to midnight in t's location. Lot expiration is a
// calendar-day rule: a lot expiring "today" is already unusable.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
