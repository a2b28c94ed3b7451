package dojo

import "time"

// MonthWindow returns the closed interval covering the UTC calendar month
// containing t: the first day at 00:00:00.000 through the last day at
// 23:59:59.999.
func MonthWindow(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Millisecond)
	return start, end
}

// PreviousMonthWindow returns the MonthWindow of the month before t.
func PreviousMonthWindow(t time.Time) (time.Time, time.Time) {
	start, _ := MonthWindow(t)
	return MonthWindow(start.Add(-time.Millisecond))
}
