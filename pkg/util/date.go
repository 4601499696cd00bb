package util

import "time"

// DayBoundsUTC returns the half-open UTC day interval containing t.
// Daily risk counters (trade counts, realized PnL) aggregate over it.
func DayBoundsUTC(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
