package reports

import (
	"testing"
	"time"
)

func TestUtilization(t *testing.T) {
	tests := []struct {
		name     string
		billable float64
		total    float64
		want     float64
	}{
		{"forty percent", 16, 40, 40},
		{"fully billable", 40, 40, 100},
		{"zero total", 0, 0, 0},
		{"zero billable", 0, 40, 0},
		{"rounds to two decimals", 1, 3, 33.33},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Utilization(tc.billable, tc.total); got != tc.want {
				t.Fatalf("Utilization(%v, %v) = %v, want %v", tc.billable, tc.total, got, tc.want)
			}
		})
	}
}

func TestBillableRatio(t *testing.T) {
	tests := []struct {
		name     string
		billable float64
		total    float64
		want     float64
	}{
		{"half billable", 20, 40, 0.5},
		{"zero total", 0, 0, 0},
		{"rounds to two decimals", 1, 3, 0.33},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := BillableRatio(tc.billable, tc.total); got != tc.want {
				t.Fatalf("BillableRatio(%v, %v) = %v, want %v", tc.billable, tc.total, got, tc.want)
			}
		})
	}
}

func TestOvertimeDays(t *testing.T) {
	days := []DayTotal{
		{Day: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), Hours: 8},
		{Day: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), Hours: 9},
		{Day: time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), Hours: 10.5},
		{Day: time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), Hours: 9.25},
	}
	// The threshold itself is not overtime.
	if got := OvertimeDays(days, 9); got != 2 {
		t.Fatalf("OvertimeDays = %d, want 2", got)
	}
	if got := OvertimeDays(nil, 9); got != 0 {
		t.Fatalf("OvertimeDays(nil) = %d, want 0", got)
	}
}

func TestWeekStart(t *testing.T) {
	// 2024-03-06 is a Wednesday.
	wed := time.Date(2024, 3, 6, 15, 30, 0, 0, time.UTC)

	monday := WeekStart(wed, time.Monday)
	if !monday.Equal(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("Monday week start = %v", monday)
	}

	sunday := WeekStart(wed, time.Sunday)
	if !sunday.Equal(time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("Sunday week start = %v", sunday)
	}

	// A timestamp on the boundary day maps to itself at midnight.
	self := WeekStart(time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC), time.Monday)
	if !self.Equal(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("boundary week start = %v", self)
	}
}
