package util

import (
	"fmt"
	"iter"
	"time"
)

// Cycle is a semi-monthly billing period: days 1-15 or 16 through the
// end of the month.
type Cycle struct {
	StartDate time.Time
	EndDate   time.Time
	Label     string
}

// cycleBoundaryDay is the last day of the first half of a month
const cycleBoundaryDay = 15

// CycleFor returns the billing cycle containing the given date.
// Days 1-15 fall in the first half; day 16 onward in the second,
// which ends on the last day of the month (28-31, leap-aware).
func CycleFor(date time.Time) Cycle {
	year, month, day := date.Date()
	if day <= cycleBoundaryDay {
		return newCycle(year, month, 1, cycleBoundaryDay)
	}
	return newCycle(year, month, 16, LastDayOfMonth(year, month))
}

// CycleOffset returns the cycle n half-months before (negative) or after
// (positive) the cycle containing date, rolling over year boundaries.
func CycleOffset(date time.Time, n int) Cycle {
	year, month, day := date.Date()

	// Index cycles on a 24-per-year grid
	idx := year*24 + (int(month)-1)*2
	if day > cycleBoundaryDay {
		idx++
	}
	idx += n

	outYear := idx / 24
	rem := idx % 24
	if rem < 0 {
		rem += 24
		outYear--
	}
	outMonth := time.Month(rem/2 + 1)
	if rem%2 == 0 {
		return newCycle(outYear, outMonth, 1, cycleBoundaryDay)
	}
	return newCycle(outYear, outMonth, 16, LastDayOfMonth(outYear, outMonth))
}

// EnumerateCycles yields the cycles overlapping [start, end] one at a
// time, ascending by start date. The sequence is empty when start is
// after end.
func EnumerateCycles(start, end time.Time) iter.Seq[Cycle] {
	return func(yield func(Cycle) bool) {
		if start.After(end) {
			return
		}
		c := CycleFor(start)
		for !c.StartDate.After(end) {
			if !yield(c) {
				return
			}
			c = CycleOffset(c.StartDate, 1)
		}
	}
}

// LastDayOfMonth returns the number of days in a month, using the
// day-zero-of-next-month idiom
func LastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthKey returns the calendar-month bucket key for a date, "YYYY-MM"
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// ISOWeekKey returns the ISO-week bucket key for a date, "YYYY-Www".
// The ISO year can differ from the calendar year near January 1.
func ISOWeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

func newCycle(year int, month time.Month, firstDay, lastDay int) Cycle {
	start := time.Date(year, month, firstDay, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, month, lastDay, 0, 0, 0, 0, time.UTC)
	return Cycle{
		StartDate: start,
		EndDate:   end,
		Label:     fmt.Sprintf("%d-%d %s %d", firstDay, lastDay, month.String(), year),
	}
}
