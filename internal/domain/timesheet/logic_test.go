package timesheet

import (
	"errors"
	"testing"
	"time"
)

func TestValidateDuration(t *testing.T) {
	valid := []Duration{
		{Hours: 8, Minutes: 0},
		{Hours: 0, Minutes: 15},
		{Hours: 24, Minutes: 0},
		{Hours: 7, Minutes: 45},
		// A zero duration is a legitimate placeholder draft.
		{Hours: 0, Minutes: 0},
	}
	for _, d := range valid {
		if err := ValidateDuration(d); err != nil {
			t.Errorf("expected %+v to be valid: %v", d, err)
		}
	}

	invalid := []Duration{
		{Hours: -1, Minutes: 0},
		{Hours: 25, Minutes: 0},
		{Hours: 8, Minutes: 10},
		{Hours: 8, Minutes: 60},
	}
	for _, d := range invalid {
		err := ValidateDuration(d)
		if err == nil {
			t.Errorf("expected %+v to be invalid", d)
			continue
		}
		if !errors.Is(err, ErrValidation) {
			t.Errorf("expected ErrValidation for %+v, got %v", d, err)
		}
	}
}

func TestDaysInRange(t *testing.T) {
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	days, err := DaysInRange(start, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 1 {
		t.Fatalf("expected 1 day, got %d", days)
	}

	days, err = DaysInRange(start, time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 3 {
		t.Fatalf("expected 3 days, got %d", days)
	}

	_, err = DaysInRange(start, start.AddDate(0, 0, -1))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for inverted range, got %v", err)
	}
}

func TestRecallEligibilityBoundary(t *testing.T) {
	submitted := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	window := 24 * time.Hour
	entry := &Entry{Status: StatusSubmitted, SubmittedAt: &submitted}

	// Inside the window.
	eligible, remaining := RecallEligibility(entry, submitted.Add(23*time.Hour), window)
	if !eligible {
		t.Fatal("expected entry to be recallable at submitted+23h")
	}
	if remaining != time.Hour {
		t.Fatalf("expected 1h remaining, got %v", remaining)
	}

	// Exactly at the boundary: still permitted.
	eligible, remaining = RecallEligibility(entry, submitted.Add(window), window)
	if !eligible {
		t.Fatal("expected recall at the exact boundary to be permitted")
	}
	if remaining != 0 {
		t.Fatalf("expected 0 remaining at the boundary, got %v", remaining)
	}

	// One second past the boundary.
	eligible, _ = RecallEligibility(entry, submitted.Add(window+time.Second), window)
	if eligible {
		t.Fatal("expected recall past the window to be denied")
	}
}

func TestRecallEligibilityNeverRecallable(t *testing.T) {
	now := time.Now()

	// Missing submission timestamp on a submitted entry.
	if eligible, _ := RecallEligibility(&Entry{Status: StatusSubmitted}, now, time.Hour); eligible {
		t.Fatal("entry without submitted_at must never be recallable")
	}

	submitted := now.Add(-time.Minute)
	for _, status := range []Status{StatusDraft, StatusApproved, StatusRejected, StatusRecalled} {
		entry := &Entry{Status: status, SubmittedAt: &submitted}
		if eligible, _ := RecallEligibility(entry, now, time.Hour); eligible {
			t.Errorf("entry in status %s must not be recallable", status)
		}
	}

	if eligible, _ := RecallEligibility(nil, now, time.Hour); eligible {
		t.Fatal("nil entry must not be recallable")
	}
}

func TestTotalHours(t *testing.T) {
	entry := &Entry{Hours: 8, Minutes: 30}
	if got := entry.TotalHours(); got != 8.5 {
		t.Fatalf("expected 8.5, got %v", got)
	}

	// Internal range entries carry the aggregate in Hours.
	internal := &Entry{Hours: 24, Minutes: 0}
	if got := internal.TotalHours(); got != 24 {
		t.Fatalf("expected 24, got %v", got)
	}
}

func TestStatusTerminal(t *testing.T) {
	for _, status := range []Status{StatusApproved, StatusRejected, StatusRecalled} {
		if !status.Terminal() {
			t.Errorf("expected %s to be terminal", status)
		}
	}
	for _, status := range []Status{StatusDraft, StatusSubmitted} {
		if status.Terminal() {
			t.Errorf("expected %s not to be terminal", status)
		}
	}
}
