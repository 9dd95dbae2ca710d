package usecase

import "time"

// MondayOf returns midnight on the Monday of the week containing t,
// evaluated in loc. Weeks run Monday through Sunday.
func MondayOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	offset := (int(local.Weekday()) + 6) % 7
	day := local.AddDate(0, 0, -offset)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
}

// WeekEnd returns the exclusive end of the week starting at weekStart.
func WeekEnd(weekStart time.Time) time.Time {
	return weekStart.AddDate(0, 0, 7)
}

// IsMonday reports whether t falls on a Monday in loc.
func IsMonday(t time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Weekday() == time.Monday
}
