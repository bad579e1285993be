package local

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rezmoss/simpletracker/internal/model"
)

// DataPoints derives report rows the way the hosted time_entry_report view
// does: one row per closed entry and attached tag, or a single untagged row.
func (g *Gateway) DataPoints(ctx context.Context, start, end time.Time) ([]model.DataPoint, error) {
	if err := g.begin(ctx, OpDataPoints); err != nil {
		return nil, err
	}
	defer g.mu.Unlock()

	var out []model.DataPoint
	for _, e := range g.data.Entries {
		if e.UserID != g.data.UserID || e.EndTime == nil {
			continue
		}
		if e.StartTime.Before(start) || !e.EndTime.Before(end) {
			continue
		}
		base := model.DataPoint{
			TimeEntryID: e.ID,
			TaskID:      e.TaskID,
			StartTime:   e.StartTime,
			EndTime:     *e.EndTime,
			Duration:    e.EndTime.Sub(e.StartTime).Milliseconds(),
		}
		local := e.StartTime.Local()
		base.Weekday = int(local.Weekday())
		base.Month = int(local.Month())
		base.Year = local.Year()
		if i := g.taskIndex(e.TaskID); i >= 0 {
			base.TaskName = g.data.Tasks[i].Name
		}

		tagged := false
		for _, tt := range g.data.TaskTags {
			if tt.TaskID != e.TaskID {
				continue
			}
			i := g.tagIndex(tt.TagID)
			if i < 0 {
				continue
			}
			tag := g.data.Tags[i]
			p := base
			p.TagID = strPtr(tag.ID)
			p.TagName = strPtr(tag.Name)
			if tag.HexColor != "" {
				p.TagColor = strPtr(tag.HexColor)
			}
			p.TagDotText = strPtr(dotText(tag.Name))
			out = append(out, p)
			tagged = true
		}
		if !tagged {
			out = append(out, base)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

func dotText(name string) string {
	for _, r := range name {
		return strings.ToUpper(string(r))
	}
	return ""
}

func strPtr(s string) *string { return &s }

func (g *Gateway) ListCharts(ctx context.Context) ([]model.SavedChart, error) {
	if err := g.begin(ctx, OpListCharts); err != nil {
		return nil, err
	}
	defer g.mu.Unlock()

	out := make([]model.SavedChart, 0, len(g.data.Charts))
	for _, c := range g.data.Charts {
		if c.UserID == g.data.UserID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// SaveChart inserts an unsaved chart or upserts a saved one on id.
func (g *Gateway) SaveChart(ctx context.Context, rec model.ChartRecord) (model.SavedChart, error) {
	if err := g.beginWrite(ctx, OpSaveChart); err != nil {
		return model.SavedChart{}, err
	}
	defer g.mu.Unlock()

	var saved model.SavedChart
	switch r := rec.(type) {
	case model.UnsavedChart:
		saved = model.SavedChart{ID: newID(), UserID: g.data.UserID, CreatedAt: g.now(), Config: r.Config}
		g.data.Charts = append(g.data.Charts, saved)
	case model.SavedChart:
		saved = r
		if i := g.chartIndex(r.ID); i >= 0 {
			g.data.Charts[i].Config = r.Config
			saved = g.data.Charts[i]
		} else {
			if saved.UserID == "" {
				saved.UserID = g.data.UserID
			}
			if saved.CreatedAt.IsZero() {
				saved.CreatedAt = g.now()
			}
			g.data.Charts = append(g.data.Charts, saved)
		}
	default:
		return model.SavedChart{}, fmt.Errorf("charts: unsupported record %T", rec)
	}
	return saved, g.commit()
}

func (g *Gateway) DeleteChart(ctx context.Context, id string) error {
	if err := g.beginWrite(ctx, OpDeleteChart); err != nil {
		return err
	}
	defer g.mu.Unlock()

	i := g.chartIndex(id)
	if i < 0 {
		return fmt.Errorf("charts: no row with id %q", id)
	}
	g.data.Charts = append(g.data.Charts[:i], g.data.Charts[i+1:]...)
	return g.commit()
}

func (g *Gateway) chartIndex(id string) int {
	for i, c := range g.data.Charts {
		if c.ID == id {
			return i
		}
	}
	return -1
}
