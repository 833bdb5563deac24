package shared

import "time"

// ParseDate reads a calendar date. Entry dates come in as YYYY-MM-DD;
// full RFC3339 timestamps are accepted for range filters. Empty input
// yields the zero time.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse("2006-01-02", value); err == nil {
		return parsed, nil
	}
	return time.Parse(time.RFC3339, value)
}
