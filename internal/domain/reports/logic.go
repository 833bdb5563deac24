package reports

import "time"

// Utilization is the billable share of total hours as a percentage,
// rounded to two decimals. Zero total yields zero rather than NaN.
func Utilization(billable, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return round2(billable / total * 100)
}

// BillableRatio is the billable share of total hours as a fraction in
// [0,1], rounded to two decimals. Zero total yields zero.
func BillableRatio(billable, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return round2(billable / total)
}

// OvertimeDays counts days whose summed hours exceed the threshold.
// The threshold itself is a full day, not overtime.
func OvertimeDays(days []DayTotal, threshold float64) int {
	n := 0
	for _, d := range days {
		if d.Hours > threshold {
			n++
		}
	}
	return n
}

// WeekStart returns the most recent week boundary at or before t.
// weekStartDay is the configured first day of the work week.
func WeekStart(t time.Time, weekStartDay time.Weekday) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) - int(weekStartDay) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
