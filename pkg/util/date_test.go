package util

import (
	"testing"
	"time"
)

func TestDayBoundsUTC(t *testing.T) {
	now := time.Date(2025, 6, 1, 18, 42, 7, 0, time.FixedZone("CEST", 2*3600))
	start, end := DayBoundsUTC(now)

	if start != time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("unexpected start %v", start)
	}
	if end.Sub(start) != 24*time.Hour {
		t.Fatalf("unexpected span %v", end.Sub(start))
	}
	if !start.Before(now.UTC()) || !end.After(now.UTC()) {
		t.Fatalf("bounds do not contain now")
	}
}

func TestDayBoundsUTCMidnight(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	start, _ := DayBoundsUTC(now)
	if !start.Equal(now) {
		t.Fatalf("midnight must map to itself, got %v", start)
	}
}
