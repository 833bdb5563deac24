package export

import (
	"testing"
	"time"
)

func TestEntryRowTotalHours(t *testing.T) {
	row := EntryRow{Hours: 7, Minutes: 45}
	if got := row.TotalHours(); got != 7.75 {
		t.Fatalf("TotalHours = %v, want 7.75", got)
	}
}

func TestRenderValue(t *testing.T) {
	ts := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	uuid := [16]byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0}

	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"plain", "plain"},
		{true, "true"},
		{ts, "2024-03-04T12:00:00Z"},
		{float64(7.5), "7.5"},
		{uuid, "12345678-9abc-def0-1234-56789abcdef0"},
		{int64(42), "42"},
	}
	for _, tc := range tests {
		if got := renderValue(tc.in); got != tc.want {
			t.Fatalf("renderValue(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
