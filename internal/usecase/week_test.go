package usecase

import (
	"testing"
	"time"
)

func TestMondayOf(t *testing.T) {
	t.Parallel()

	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "midweek collapses to monday",
			in:   time.Date(2025, time.September, 10, 15, 30, 0, 0, london),
			want: time.Date(2025, time.September, 8, 0, 0, 0, 0, london),
		},
		{
			name: "monday is identity at midnight",
			in:   time.Date(2025, time.September, 8, 0, 0, 0, 0, london),
			want: time.Date(2025, time.September, 8, 0, 0, 0, 0, london),
		},
		{
			name: "sunday belongs to the preceding monday",
			in:   time.Date(2025, time.September, 14, 23, 59, 0, 0, london),
			want: time.Date(2025, time.September, 8, 0, 0, 0, 0, london),
		},
		{
			name: "utc instant is evaluated in game zone",
			in:   time.Date(2025, time.September, 7, 23, 30, 0, 0, time.UTC), // already Monday 00:30 BST
			want: time.Date(2025, time.September, 8, 0, 0, 0, 0, london),
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := MondayOf(tc.in, london)
			if !got.Equal(tc.want) {
				t.Fatalf("MondayOf(%s) = %s, want %s", tc.in, got, tc.want)
			}
		})
	}
}

func TestWeekEnd(t *testing.T) {
	t.Parallel()

	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	start := time.Date(2025, time.October, 20, 0, 0, 0, 0, london)
	end := WeekEnd(start)
	if end.Weekday() != time.Monday {
		t.Fatalf("expected week end on Monday, got %s", end.Weekday())
	}
	if !end.After(start) {
		t.Fatalf("expected week end after start")
	}
	// DST ends on 2025-10-26, so the week spans a clock change but still
	// lands on the next Monday midnight.
	if end.Hour() != 0 {
		t.Fatalf("expected midnight week end, got hour %d", end.Hour())
	}
}

func TestIsMonday(t *testing.T) {
	t.Parallel()

	if !IsMonday(time.Date(2025, time.September, 8, 12, 0, 0, 0, time.UTC), time.UTC) {
		t.Fatalf("expected 2025-09-08 to be Monday")
	}
	if IsMonday(time.Date(2025, time.September, 9, 12, 0, 0, 0, time.UTC), time.UTC) {
		t.Fatalf("expected 2025-09-09 not to be Monday")
	}
}
