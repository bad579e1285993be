package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rezmoss/simpletracker/internal/model"
)

// reportView is the time_entry_report view: one row per closed entry and tag.
const reportView = "time_entry_report"

type chartRow struct {
	ID     string            `json:"id,omitempty"`
	Config model.ChartConfig `json:"chart_config"`
}

func (c *Client) DataPoints(ctx context.Context, start, end time.Time) ([]model.DataPoint, error) {
	q := url.Values{
		"select": {"*"},
		"order":  {"start_time.asc"},
	}
	q.Add("start_time", "gte."+start.UTC().Format(time.RFC3339Nano))
	q.Add("end_time", "lt."+end.UTC().Format(time.RFC3339Nano))

	var rows []model.DataPoint
	err := c.rest(ctx, request{method: http.MethodGet, table: reportView, query: q}, &rows)
	return rows, err
}

func (c *Client) ListCharts(ctx context.Context) ([]model.SavedChart, error) {
	var rows []model.SavedChart
	err := c.rest(ctx, request{
		method: http.MethodGet,
		table:  "charts",
		query:  url.Values{"select": {"*"}, "order": {"created_at.desc"}},
	}, &rows)
	return rows, err
}

// SaveChart upserts on id; an unsaved chart gets its id from the database.
func (c *Client) SaveChart(ctx context.Context, rec model.ChartRecord) (model.SavedChart, error) {
	row := chartRow{Config: rec.Chart()}
	switch r := rec.(type) {
	case model.SavedChart:
		row.ID = r.ID
	case model.UnsavedChart:
	default:
		return model.SavedChart{}, fmt.Errorf("supabase: unknown chart record %T", rec)
	}

	var rows []model.SavedChart
	err := c.rest(ctx, request{
		method: http.MethodPost,
		table:  "charts",
		query:  url.Values{"on_conflict": {"id"}},
		body:   row,
		prefer: upsertRow,
	}, &rows)
	if err != nil {
		return model.SavedChart{}, err
	}
	if s := first(rows); s != nil {
		return *s, nil
	}
	return model.SavedChart{}, errors.New("supabase: upsert into charts returned no row")
}

func (c *Client) DeleteChart(ctx context.Context, id string) error {
	return c.rest(ctx, request{
		method: http.MethodDelete,
		table:  "charts",
		query:  url.Values{"id": {eq(id)}},
	}, nil)
}
