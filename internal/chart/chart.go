// Package chart turns time entry report rows into chart series.
//
// Aggregation runs in four stages: filter the rows to the configured period,
// group them by the configured keys, compute the aggregates of each group and
// project the groups onto the X and Y axes.
package chart

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rezmoss/simpletracker/internal/colors"
	"github.com/rezmoss/simpletracker/internal/model"
)

// Group is the set of data points sharing one composite key.
type Group struct {
	Key       string
	GroupKeys map[model.GroupKey]any
	Points    []model.DataPoint
	Values    map[model.Field]any
}

type Series struct {
	Label           string
	Data            []any
	BackgroundColor []string
}

// Data is the projection of the groups onto the chart axes.
type Data struct {
	X      []string
	Series []Series
	Groups []*Group
	Config model.ChartConfig
}

// Aggregate aggregates raw against the current time.
func Aggregate(cfg model.ChartConfig, raw []model.DataPoint) (Data, error) {
	return AggregateAt(cfg, raw, time.Now())
}

// AggregateAt aggregates raw for the period of cfg as seen at now.
func AggregateAt(cfg model.ChartConfig, raw []model.DataPoint, now time.Time) (Data, error) {
	start, end, err := Interval(cfg.PeriodType, now)
	if err != nil {
		return Data{}, err
	}
	groups := group(cfg.GroupBy, Filter(raw, start, end))
	for _, g := range groups {
		aggregate(g)
	}
	return project(cfg, groups), nil
}

// Filter keeps the points starting at or after start and ending before end.
func Filter(raw []model.DataPoint, start, end time.Time) []model.DataPoint {
	var out []model.DataPoint
	for _, p := range raw {
		if !p.StartTime.Before(start) && p.EndTime.Before(end) {
			out = append(out, p)
		}
	}
	return out
}

// group buckets points by the values of keys. Groups keep the order in which
// their first point was seen, and a point whose entry is already in its group
// is skipped.
func group(keys []model.GroupKey, points []model.DataPoint) []*Group {
	var order []*Group
	byKey := make(map[string]*Group)

	for _, p := range points {
		gk := make(map[model.GroupKey]any, len(keys))
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			v := p.Value(string(k))
			gk[k] = v
			parts = append(parts, keyPart(v))
		}
		key := strings.Join(parts, "-")

		g, ok := byKey[key]
		if !ok {
			g = &Group{Key: key, GroupKeys: gk, Values: make(map[model.Field]any)}
			for _, k := range keys {
				for _, f := range groupSetters[k] {
					g.Values[f] = p.Value(string(f))
				}
			}
			byKey[key] = g
			order = append(order, g)
		}
		if !slices.ContainsFunc(g.Points, func(q model.DataPoint) bool { return q.TimeEntryID == p.TimeEntryID }) {
			g.Points = append(g.Points, p)
		}
	}
	return order
}

func keyPart(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func aggregate(g *Group) {
	var total int64
	for _, p := range g.Points {
		total += p.Duration
	}
	g.Values[model.FieldDuration] = total
	g.Values[model.FieldCount] = len(g.Points)
}

func project(cfg model.ChartConfig, groups []*Group) Data {
	series := Series{
		Label:           Describe(cfg.YAxisField),
		Data:            make([]any, 0, len(groups)),
		BackgroundColor: make([]string, 0, len(groups)),
	}
	x := make([]string, 0, len(groups))

	for _, g := range groups {
		x = append(x, label(cfg, g))
		series.Data = append(series.Data, g.Values[cfg.YAxisField])

		color, _ := g.Values[model.FieldTagColor].(string)
		if color == "" {
			color = colors.ForKey(g.Key)
		}
		series.BackgroundColor = append(series.BackgroundColor, color)
	}
	return Data{X: x, Series: []Series{series}, Groups: groups, Config: cfg}
}

// label formats the X axis field of a single-key chart. With several keys
// each key contributes a label and repeated labels are dropped.
func label(cfg model.ChartConfig, g *Group) string {
	if len(cfg.GroupBy) <= 1 {
		return FormatValue(cfg.XAxisField, g.Values[cfg.XAxisField])
	}
	var parts []string
	for _, k := range cfg.GroupBy {
		l := keyLabel(k, g.Values)
		if !slices.Contains(parts, l) {
			parts = append(parts, l)
		}
	}
	return strings.Join(parts, " - ")
}
