package chart

import (
	"fmt"
	"time"

	"github.com/rezmoss/simpletracker/internal/model"
	"github.com/rezmoss/simpletracker/internal/timeutil"
)

// Interval returns the [start, end) window of period in now's location.
// Weeks start on Sunday.
func Interval(period model.PeriodType, now time.Time) (start, end time.Time, err error) {
	today := timeutil.StartOfDay(now)
	loc := now.Location()

	switch period {
	case model.PeriodToday:
		start = today
		end = start.AddDate(0, 0, 1)
	case model.PeriodYesterday:
		start = today.AddDate(0, 0, -1)
		end = start.AddDate(0, 0, 1)
	case model.PeriodThisWeek:
		start = today.AddDate(0, 0, -int(today.Weekday()))
		end = start.AddDate(0, 0, 7)
	case model.PeriodLastWeek:
		start = today.AddDate(0, 0, -int(today.Weekday())-7)
		end = start.AddDate(0, 0, 7)
	case model.PeriodThisMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 1, 0)
	case model.PeriodLastMonth:
		end = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		start = end.AddDate(0, -1, 0)
	case model.PeriodThisYear:
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc)
		end = start.AddDate(1, 0, 0)
	case model.PeriodLastYear:
		end = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc)
		start = end.AddDate(-1, 0, 0)
	default:
		return time.Time{}, time.Time{}, model.Invalid("unknown period type %q", period)
	}
	return start, end, nil
}

// Periods lists every supported period, most recent first.
var Periods = []model.PeriodType{
	model.PeriodToday,
	model.PeriodYesterday,
	model.PeriodThisWeek,
	model.PeriodLastWeek,
	model.PeriodThisMonth,
	model.PeriodLastMonth,
	model.PeriodThisYear,
	model.PeriodLastYear,
}

// ParsePeriod accepts the period names used in config files and flags.
func ParsePeriod(s string) (model.PeriodType, error) {
	for _, p := range Periods {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: unknown period %q", model.ErrInvalidArgument, s)
}
