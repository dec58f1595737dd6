package util

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCycleFor_FirstHalf(t *testing.T) {
	c := CycleFor(date(2024, time.March, 7))

	if !c.StartDate.Equal(date(2024, time.March, 1)) {
		t.Errorf("Expected start 2024-03-01, got %s", c.StartDate.Format("2006-01-02"))
	}
	if !c.EndDate.Equal(date(2024, time.March, 15)) {
		t.Errorf("Expected end 2024-03-15, got %s", c.EndDate.Format("2006-01-02"))
	}
}

func TestCycleFor_BoundaryDay15(t *testing.T) {
	c := CycleFor(date(2024, time.March, 15))

	if !c.EndDate.Equal(date(2024, time.March, 15)) {
		t.Errorf("Day 15 belongs to the first half, got end %s", c.EndDate.Format("2006-01-02"))
	}
}

func TestCycleFor_BoundaryDay16(t *testing.T) {
	c := CycleFor(date(2024, time.March, 16))

	if !c.StartDate.Equal(date(2024, time.March, 16)) {
		t.Errorf("Day 16 starts the second half, got start %s", c.StartDate.Format("2006-01-02"))
	}
	if !c.EndDate.Equal(date(2024, time.March, 31)) {
		t.Errorf("Expected end 2024-03-31, got %s", c.EndDate.Format("2006-01-02"))
	}
}

func TestCycleFor_LeapFebruary(t *testing.T) {
	// 2024-02-29 falls in the 16 to end-of-month cycle of a leap February
	c := CycleFor(date(2024, time.February, 29))

	if !c.StartDate.Equal(date(2024, time.February, 16)) {
		t.Errorf("Expected start 2024-02-16, got %s", c.StartDate.Format("2006-01-02"))
	}
	if !c.EndDate.Equal(date(2024, time.February, 29)) {
		t.Errorf("Expected end 2024-02-29, got %s", c.EndDate.Format("2006-01-02"))
	}
}

func TestCycleFor_NonLeapFebruary(t *testing.T) {
	c := CycleFor(date(2023, time.February, 20))

	if !c.EndDate.Equal(date(2023, time.February, 28)) {
		t.Errorf("Expected end 2023-02-28, got %s", c.EndDate.Format("2006-01-02"))
	}
}

func TestCycleFor_ContainsDate(t *testing.T) {
	// Every valid date sits inside its own cycle, across month lengths
	dates := []time.Time{
		date(2024, time.January, 1),
		date(2024, time.January, 31),
		date(2024, time.February, 29),
		date(2024, time.April, 30),
		date(2024, time.June, 15),
		date(2024, time.June, 16),
		date(2025, time.February, 28),
		date(2024, time.December, 31),
	}

	for _, d := range dates {
		c := CycleFor(d)
		if c.StartDate.After(d) || c.EndDate.Before(d) {
			t.Errorf("Cycle [%s, %s] does not contain %s",
				c.StartDate.Format("2006-01-02"), c.EndDate.Format("2006-01-02"), d.Format("2006-01-02"))
		}
	}
}

func TestCycleOffset_Forward(t *testing.T) {
	// Second half of March + 1 = first half of April
	c := CycleOffset(date(2024, time.March, 20), 1)

	if !c.StartDate.Equal(date(2024, time.April, 1)) {
		t.Errorf("Expected 2024-04-01, got %s", c.StartDate.Format("2006-01-02"))
	}
}

func TestCycleOffset_BackwardAcrossYear(t *testing.T) {
	// First half of January - 1 = second half of previous December
	c := CycleOffset(date(2024, time.January, 5), -1)

	if !c.StartDate.Equal(date(2023, time.December, 16)) {
		t.Errorf("Expected 2023-12-16, got %s", c.StartDate.Format("2006-01-02"))
	}
	if !c.EndDate.Equal(date(2023, time.December, 31)) {
		t.Errorf("Expected 2023-12-31, got %s", c.EndDate.Format("2006-01-02"))
	}
}

func TestCycleOffset_ForwardAcrossYear(t *testing.T) {
	c := CycleOffset(date(2023, time.December, 20), 1)

	if !c.StartDate.Equal(date(2024, time.January, 1)) {
		t.Errorf("Expected 2024-01-01, got %s", c.StartDate.Format("2006-01-02"))
	}
}

func TestCycleOffset_FullYear(t *testing.T) {
	// 24 half-month cycles per year
	c := CycleOffset(date(2024, time.May, 10), 24)

	if !c.StartDate.Equal(date(2025, time.May, 1)) {
		t.Errorf("Expected 2025-05-01, got %s", c.StartDate.Format("2006-01-02"))
	}
}

func TestCycleOffset_Zero(t *testing.T) {
	c := CycleOffset(date(2024, time.May, 10), 0)
	want := CycleFor(date(2024, time.May, 10))

	if !c.StartDate.Equal(want.StartDate) || !c.EndDate.Equal(want.EndDate) {
		t.Errorf("Zero offset must return the containing cycle")
	}
}

func TestEnumerateCycles(t *testing.T) {
	var cycles []Cycle
	for c := range EnumerateCycles(date(2024, time.January, 10), date(2024, time.February, 20)) {
		cycles = append(cycles, c)
	}

	want := []struct{ start, end time.Time }{
		{date(2024, time.January, 1), date(2024, time.January, 15)},
		{date(2024, time.January, 16), date(2024, time.January, 31)},
		{date(2024, time.February, 1), date(2024, time.February, 15)},
		{date(2024, time.February, 16), date(2024, time.February, 29)},
	}

	if len(cycles) != len(want) {
		t.Fatalf("Expected %d cycles, got %d", len(want), len(cycles))
	}
	for i, w := range want {
		if !cycles[i].StartDate.Equal(w.start) || !cycles[i].EndDate.Equal(w.end) {
			t.Errorf("Cycle %d: expected [%s, %s], got [%s, %s]", i,
				w.start.Format("2006-01-02"), w.end.Format("2006-01-02"),
				cycles[i].StartDate.Format("2006-01-02"), cycles[i].EndDate.Format("2006-01-02"))
		}
	}
}

func TestEnumerateCycles_StopsEarly(t *testing.T) {
	// Consuming a single cycle must not walk the rest of the range
	var first *Cycle
	for c := range EnumerateCycles(date(2024, time.January, 1), date(2030, time.December, 31)) {
		first = &c
		break
	}

	if first == nil {
		t.Fatal("Expected at least one cycle")
	}
	if !first.StartDate.Equal(date(2024, time.January, 1)) || !first.EndDate.Equal(date(2024, time.January, 15)) {
		t.Errorf("Expected first cycle [2024-01-01, 2024-01-15], got [%s, %s]",
			first.StartDate.Format("2006-01-02"), first.EndDate.Format("2006-01-02"))
	}
}

func TestEnumerateCycles_InvertedRange(t *testing.T) {
	count := 0
	for range EnumerateCycles(date(2024, time.March, 1), date(2024, time.February, 1)) {
		count++
	}

	if count != 0 {
		t.Errorf("Expected empty sequence for inverted range, got %d cycles", count)
	}
}

func TestLastDayOfMonth(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.January, 31},
		{2024, time.February, 29},
		{2023, time.February, 28},
		{2100, time.February, 28}, // century non-leap
		{2000, time.February, 29}, // quadricentennial leap
		{2024, time.April, 30},
		{2024, time.December, 31},
	}

	for _, c := range cases {
		if got := LastDayOfMonth(c.year, c.month); got != c.want {
			t.Errorf("LastDayOfMonth(%d, %s): expected %d, got %d", c.year, c.month, c.want, got)
		}
	}
}

func TestMonthKey(t *testing.T) {
	if got := MonthKey(date(2024, time.January, 5)); got != "2024-01" {
		t.Errorf("Expected 2024-01, got %s", got)
	}
}

func TestISOWeekKey(t *testing.T) {
	// 2024-01-01 is a Monday, ISO week 1
	if got := ISOWeekKey(date(2024, time.January, 1)); got != "2024-W01" {
		t.Errorf("Expected 2024-W01, got %s", got)
	}
	// 2023-01-01 is a Sunday and belongs to ISO week 52 of 2022
	if got := ISOWeekKey(date(2023, time.January, 1)); got != "2022-W52" {
		t.Errorf("Expected 2022-W52, got %s", got)
	}
}
