// Package report summarizes tracked time per day or month against the
// configured daily goal.
package report

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/rezmoss/simpletracker/internal/config"
	"github.com/rezmoss/simpletracker/internal/gateway"
	"github.com/rezmoss/simpletracker/internal/model"
	"github.com/rezmoss/simpletracker/internal/timeutil"
)

type Range string

const (
	RangeToday Range = "today"
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
	RangeYear  Range = "year"
)

var Ranges = []Range{RangeToday, RangeWeek, RangeMonth, RangeYear}

func ParseRange(s string) (Range, error) {
	for _, r := range Ranges {
		if string(r) == s {
			return r, nil
		}
	}
	return "", model.Invalid("unknown range %q", s)
}

// Row is one line of a report. Description is only set for today's entries.
type Row struct {
	Label       string
	Minutes     int
	Description string
}

type Report struct {
	Range  Range
	Title  string
	Column string
	Rows   []Row
	// TotalMinutes sums the rows.
	TotalMinutes int
	// GoalMinutes is the goal over the whole range; zero when the range has no work days.
	GoalMinutes int
}

// Bounds returns the calendar window for r in now's location. Weeks start on Monday.
func Bounds(r Range, now time.Time) (start, end time.Time, err error) {
	today := timeutil.StartOfDay(now)
	switch r {
	case RangeToday:
		return today, today.AddDate(0, 0, 1), nil
	case RangeWeek:
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start = today.AddDate(0, 0, -(weekday - 1))
		return start, start.AddDate(0, 0, 7), nil
	case RangeMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 1, 0), nil
	case RangeYear:
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(1, 0, 0), nil
	}
	return time.Time{}, time.Time{}, model.Invalid("unknown range %q", r)
}

// Generate fetches the data points for r and builds the report.
func Generate(ctx context.Context, gw gateway.Gateway, r Range, cfg *config.Config, now time.Time) (*Report, error) {
	start, end, err := Bounds(r, now)
	if err != nil {
		return nil, err
	}
	points, err := gw.DataPoints(ctx, start, end)
	if err != nil {
		return nil, model.Persistence("data points", err)
	}
	return Build(r, points, cfg, now)
}

// Build summarizes points for r. Points repeated once per tag count once.
func Build(r Range, points []model.DataPoint, cfg *config.Config, now time.Time) (*Report, error) {
	start, end, err := Bounds(r, now)
	if err != nil {
		return nil, err
	}
	loc := now.Location()
	entries := unique(points, start, end)

	rep := &Report{Range: r}
	switch r {
	case RangeToday:
		rep.Title = now.Format("Date : Jan 2, 2006 , Monday")
		rep.Column = "Time Range"
		for _, p := range entries {
			s, e := p.StartTime.In(loc), p.EndTime.In(loc)
			rep.Rows = append(rep.Rows, Row{
				Label:       s.Format("15:04") + "-" + e.Format("15:04"),
				Minutes:     minutes(p.Duration),
				Description: p.TaskName,
			})
		}
		if cfg.IsWorkDay(now) {
			rep.GoalMinutes = cfg.DailyGoalMinutes
		}
	case RangeWeek, RangeMonth:
		if r == RangeWeek {
			rep.Title = fmt.Sprintf("for week starting %s", start.Format("2006-01-02"))
		} else {
			rep.Title = fmt.Sprintf("for month %s", start.Format("2006-01"))
		}
		rep.Column = "Date"
		perDay := map[string]int64{}
		for _, p := range entries {
			perDay[p.StartTime.In(loc).Format("2006-01-02")] += p.Duration
		}
		for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
			key := d.Format("2006-01-02")
			rep.Rows = append(rep.Rows, Row{Label: key, Minutes: minutes(perDay[key])})
		}
		rep.GoalMinutes = workDays(cfg, start, end) * cfg.DailyGoalMinutes
	case RangeYear:
		rep.Title = fmt.Sprintf("for year %d (monthly totals)", now.Year())
		rep.Column = "Month"
		perMonth := map[time.Month]int64{}
		for _, p := range entries {
			perMonth[p.StartTime.In(loc).Month()] += p.Duration
		}
		for m := time.January; m <= time.December; m++ {
			rep.Rows = append(rep.Rows, Row{Label: m.String()[:3], Minutes: minutes(perMonth[m])})
		}
		rep.GoalMinutes = workDays(cfg, start, end) * cfg.DailyGoalMinutes
	}
	for _, row := range rep.Rows {
		rep.TotalMinutes += row.Minutes
	}
	return rep, nil
}

func unique(points []model.DataPoint, start, end time.Time) []model.DataPoint {
	seen := map[string]bool{}
	var out []model.DataPoint
	for _, p := range points {
		if seen[p.TimeEntryID] || p.StartTime.Before(start) || !p.EndTime.Before(end) {
			continue
		}
		seen[p.TimeEntryID] = true
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

func minutes(ms int64) int { return int(ms / int64(time.Minute/time.Millisecond)) }

func workDays(cfg *config.Config, start, end time.Time) int {
	n := 0
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		if cfg.IsWorkDay(d) {
			n++
		}
	}
	return n
}

// Progress returns worked minutes as a whole percentage of the goal.
func Progress(workMins, goalMins int) int {
	if goalMins <= 0 {
		return 0
	}
	return workMins * 100 / goalMins
}

// FormatPercentage renders progress as "50% of 8 hrs".
func FormatPercentage(workMins, goalMins int) string {
	if goalMins == 0 {
		return "0%"
	}
	return fmt.Sprintf("%d%% of %s", Progress(workMins, goalMins), timeutil.HumanDuration(goalMins))
}

func (r *Report) noun() string {
	switch r.Range {
	case RangeToday:
		return "today"
	case RangeWeek:
		return "week"
	case RangeMonth:
		return "month"
	case RangeYear:
		return "year"
	}
	return "range"
}

// Write prints the report as a plain text table.
func (r *Report) Write(w io.Writer) error {
	rule := strings.Repeat("-", 50)
	var b strings.Builder
	fmt.Fprintln(&b, r.Title)
	fmt.Fprintln(&b, rule)
	if r.Range == RangeToday {
		fmt.Fprintf(&b, "%-15s | %-12s | %s\n", r.Column, "Duration", "Task")
	} else {
		fmt.Fprintf(&b, "%-15s | %s\n", r.Column, "Working Time")
	}
	fmt.Fprintln(&b, rule)
	for _, row := range r.Rows {
		if r.Range == RangeToday {
			fmt.Fprintf(&b, "%-15s | %-12s | %s\n", row.Label, timeutil.HumanDuration(row.Minutes), row.Description)
			continue
		}
		fmt.Fprintf(&b, "%-15s | %s\n", row.Label, timeutil.HumanDuration(row.Minutes))
	}
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Total working %s : %s\n", r.noun(), timeutil.HumanDuration(r.TotalMinutes))
	if r.GoalMinutes > 0 {
		label := "Goal progress"
		if r.Range == RangeToday {
			label = "Daily goal progress"
		}
		fmt.Fprintf(&b, "%s: %s\n", label, FormatPercentage(r.TotalMinutes, r.GoalMinutes))
	}
	_, err := io.WriteString(w, b.String())
	return err
}
