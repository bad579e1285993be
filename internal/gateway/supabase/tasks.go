package supabase

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/rezmoss/simpletracker/internal/model"
)

const (
	returnRow = "return=representation"
	upsertRow = "resolution=merge-duplicates,return=representation"
)

type taskRow struct {
	Name       string `json:"name,omitempty"`
	AltCode    string `json:"alt_code,omitempty"`
	IsFavorite *bool  `json:"is_favorite,omitempty"`
}

func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var rows []model.Task
	err := c.rest(ctx, request{
		method: http.MethodGet,
		table:  "tasks",
		query:  url.Values{"select": {"*"}, "order": {"created_at.desc"}},
	}, &rows)
	return rows, err
}

func (c *Client) GetTask(ctx context.Context, id string) (*model.Task, error) {
	return c.taskWhere(ctx, "id", id)
}

func (c *Client) GetTaskByAltCode(ctx context.Context, altCode string) (*model.Task, error) {
	return c.taskWhere(ctx, "alt_code", altCode)
}

func (c *Client) taskWhere(ctx context.Context, column, value string) (*model.Task, error) {
	var rows []model.Task
	err := c.rest(ctx, request{
		method: http.MethodGet,
		table:  "tasks",
		query:  url.Values{"select": {"*"}, column: {eq(value)}, "limit": {"1"}},
	}, &rows)
	if err != nil {
		return nil, err
	}
	return first(rows), nil
}

func (c *Client) CreateTask(ctx context.Context, name, altCode string) (model.Task, error) {
	var rows []model.Task
	err := c.rest(ctx, request{
		method: http.MethodPost,
		table:  "tasks",
		body:   taskRow{Name: name, AltCode: altCode},
		prefer: returnRow,
	}, &rows)
	if err != nil {
		return model.Task{}, err
	}
	if t := first(rows); t != nil {
		return *t, nil
	}
	return model.Task{}, errors.New("supabase: insert into tasks returned no row")
}

// createTrackedTask creates a task for tracking and gives it its own id as
// alt code when none was supplied.
func (c *Client) createTrackedTask(ctx context.Context, name, altCode string) (model.Task, error) {
	t, err := c.CreateTask(ctx, name, altCode)
	if err != nil || t.AltCode != "" {
		return t, err
	}
	t.AltCode = t.ID
	if err := c.UpdateTask(ctx, t); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func (c *Client) UpdateTask(ctx context.Context, task model.Task) error {
	fav := task.IsFavorite
	return c.rest(ctx, request{
		method: http.MethodPatch,
		table:  "tasks",
		query:  url.Values{"id": {eq(task.ID)}},
		body:   taskRow{Name: task.Name, AltCode: task.AltCode, IsFavorite: &fav},
	}, nil)
}

func (c *Client) ListFavorites(ctx context.Context) ([]model.Task, error) {
	uid, err := c.UserID(ctx)
	if err != nil {
		return nil, err
	}
	var rows []model.Task
	err = c.rest(ctx, request{
		method: http.MethodGet,
		table:  "tasks",
		query: url.Values{
			"select":      {"*"},
			"is_favorite": {"eq.true"},
			"user_id":     {eq(uid)},
		},
	}, &rows)
	return rows, err
}
