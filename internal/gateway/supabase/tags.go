package supabase

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/rezmoss/simpletracker/internal/model"
)

type tagRow struct {
	Name     string `json:"name"`
	HexColor string `json:"hex_color,omitempty"`
}

func (c *Client) ListTags(ctx context.Context) ([]model.Tag, error) {
	var rows []model.Tag
	err := c.rest(ctx, request{
		method: http.MethodGet,
		table:  "tags",
		query:  url.Values{"select": {"*"}, "order": {"name.asc"}},
	}, &rows)
	return rows, err
}

func (c *Client) CreateTag(ctx context.Context, name, hexColor string) (model.Tag, error) {
	var rows []model.Tag
	err := c.rest(ctx, request{
		method: http.MethodPost,
		table:  "tags",
		body:   tagRow{Name: name, HexColor: hexColor},
		prefer: returnRow,
	}, &rows)
	if err != nil {
		return model.Tag{}, err
	}
	if t := first(rows); t != nil {
		return *t, nil
	}
	return model.Tag{}, errors.New("supabase: insert into tags returned no row")
}

func (c *Client) UpdateTag(ctx context.Context, tag model.Tag) error {
	return c.rest(ctx, request{
		method: http.MethodPatch,
		table:  "tags",
		query:  url.Values{"id": {eq(tag.ID)}},
		body:   tagRow{Name: tag.Name, HexColor: tag.HexColor},
	}, nil)
}

func (c *Client) DeleteTag(ctx context.Context, id string) error {
	return c.rest(ctx, request{
		method: http.MethodDelete,
		table:  "tags",
		query:  url.Values{"id": {eq(id)}},
	}, nil)
}

// TaskTags reads the association with each tag embedded.
func (c *Client) TaskTags(ctx context.Context, taskID string) ([]model.Tag, error) {
	var rows []struct {
		Tag *model.Tag `json:"tags"`
	}
	err := c.rest(ctx, request{
		method: http.MethodGet,
		table:  "tasks_tags",
		query:  url.Values{"select": {"tags(*)"}, "task_id": {eq(taskID)}},
	}, &rows)
	if err != nil {
		return nil, err
	}
	tags := make([]model.Tag, 0, len(rows))
	for _, r := range rows {
		if r.Tag != nil {
			tags = append(tags, *r.Tag)
		}
	}
	return tags, nil
}

func (c *Client) AddTagToTask(ctx context.Context, taskID, tagID string) error {
	return c.rest(ctx, request{
		method: http.MethodPost,
		table:  "tasks_tags",
		body:   model.TaskTag{TaskID: taskID, TagID: tagID},
	}, nil)
}

func (c *Client) RemoveTagFromTask(ctx context.Context, taskID, tagID string) error {
	return c.rest(ctx, request{
		method: http.MethodDelete,
		table:  "tasks_tags",
		query:  url.Values{"task_id": {eq(taskID)}, "tag_id": {eq(tagID)}},
	}, nil)
}
