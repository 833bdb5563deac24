package timesheet

import (
	"fmt"
	"time"
)

// ValidateDuration checks the per-day duration bounds: hours in [0,24],
// minutes one of the quarter-hour steps. Zero is allowed, so a
// placeholder draft can be logged before the day's hours are known.
func ValidateDuration(d Duration) error {
	if d.Hours < 0 || d.Hours > 24 {
		return fmt.Errorf("%w: hours must be between 0 and 24", ErrValidation)
	}
	switch d.Minutes {
	case 0, 15, 30, 45:
	default:
		return fmt.Errorf("%w: minutes must be one of 0, 15, 30, 45", ErrValidation)
	}
	return nil
}

// DaysInRange returns the inclusive day count between start and end.
func DaysInRange(start, end time.Time) (int, error) {
	start = truncateToDay(start)
	end = truncateToDay(end)
	if end.Before(start) {
		return 0, fmt.Errorf("%w: end date must be on or after start date", ErrValidation)
	}
	return int(end.Sub(start).Hours()/24) + 1, nil
}

// RecallEligibility reports whether an entry may still be recalled at now,
// and how much of the window remains. The boundary is inclusive: an entry
// whose window elapses exactly at now is still recallable. Entries that
// are not submitted, or submitted without a timestamp, are never eligible.
func RecallEligibility(e *Entry, now time.Time, window time.Duration) (bool, time.Duration) {
	if e == nil || e.Status != StatusSubmitted || e.SubmittedAt == nil {
		return false, 0
	}
	deadline := e.SubmittedAt.Add(window)
	remaining := deadline.Sub(now)
	if remaining < 0 {
		return false, 0
	}
	return true, remaining
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
