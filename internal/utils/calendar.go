package utils

import "time"

// MonthGrid lays out the days of month as calendar weeks starting on Sunday.
// Each week has seven cells; cells before the 1st and after the last day are
// nil.
//
// Example (June 2025 starts on a Sunday):
//
//	MonthGrid(2025, time.June)[0] // [1 2 3 4 5 6 7]
func MonthGrid(year int, month time.Month) [][]*int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := DaysIn(year, month)
	lead := int(first.Weekday())

	cells := make([]*int, 0, 42)
	for i := 0; i < lead; i++ {
		cells = append(cells, nil)
	}
	for d := 1; d <= days; d++ {
		cells = append(cells, &d)
	}
	for len(cells)%7 != 0 {
		cells = append(cells, nil)
	}

	weeks := make([][]*int, 0, len(cells)/7)
	for i := 0; i < len(cells); i += 7 {
		weeks = append(weeks, cells[i:i+7])
	}
	return weeks
}

// DaysIn returns the number of days in month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthRange returns [start, end) of month in loc.
func MonthRange(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}
