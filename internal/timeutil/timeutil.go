// Package timeutil formats durations and calendar dates for display.
package timeutil

import (
	"fmt"
	"time"
)

// DurationString renders d as HH:MM:SS. Negative durations render as their
// absolute value and hours keep counting past 24.
func DurationString(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// DurationStringMs is DurationString for a millisecond count.
func DurationStringMs(ms int64) string {
	return DurationString(time.Duration(ms) * time.Millisecond)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EntriesDateString returns "Today" or "Yesterday" relative to now, otherwise
// the date itself.
func EntriesDateString(date, now time.Time) string {
	day := StartOfDay(date.In(now.Location()))
	today := StartOfDay(now)
	switch {
	case day.Equal(today):
		return "Today"
	case day.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	}
	return day.Format("Mon, Jan 2 2006")
}

// HumanDuration renders whole minutes as "1 hr 5 mins" style text.
func HumanDuration(mins int) string {
	h := mins / 60
	m := mins % 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%d hr %d mins", h, m)
	case h > 0:
		if h == 1 {
			return "1 hr"
		}
		return fmt.Sprintf("%d hrs", h)
	case m == 1:
		return "1 min"
	default:
		return fmt.Sprintf("%d mins", m)
	}
}
