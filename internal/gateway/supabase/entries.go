package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rezmoss/simpletracker/internal/model"
)

type entryRow struct {
	TaskID    string     `json:"task_id,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

type currentRow struct {
	UserID      string `json:"user_id"`
	TaskID      string `json:"task_id"`
	TimeEntryID string `json:"time_entry_id"`
}

func (c *Client) ListEntries(ctx context.Context, limit, page int) ([]model.TimeEntry, error) {
	if limit <= 0 || page < 0 {
		return nil, fmt.Errorf("supabase: invalid page %d of size %d", page, limit)
	}
	uid, err := c.UserID(ctx)
	if err != nil {
		return nil, err
	}
	var rows []model.TimeEntry
	err = c.rest(ctx, request{
		method: http.MethodGet,
		table:  "time_entries",
		query: url.Values{
			"select":   {"*,tasks(*)"},
			"user_id":  {eq(uid)},
			"end_time": {"not.is.null"},
			"order":    {"start_time.desc"},
			"offset":   {strconv.Itoa(limit * page)},
			"limit":    {strconv.Itoa(limit)},
		},
	}, &rows)
	return rows, err
}

func (c *Client) UpdateEntry(ctx context.Context, entry model.TimeEntry) error {
	start := entry.StartTime
	return c.rest(ctx, request{
		method: http.MethodPatch,
		table:  "time_entries",
		query:  url.Values{"id": {eq(entry.ID)}},
		body:   entryRow{TaskID: entry.TaskID, StartTime: &start, EndTime: entry.EndTime},
	}, nil)
}

func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	return c.rest(ctx, request{
		method: http.MethodDelete,
		table:  "time_entries",
		query:  url.Values{"id": {eq(id)}},
	}, nil)
}

func (c *Client) CurrentTask(ctx context.Context) (*model.CurrentTask, error) {
	var rows []model.CurrentTask
	err := c.rest(ctx, request{
		method: http.MethodGet,
		table:  "current_tasks",
		query:  url.Values{"select": {"*,tasks(*),time_entries(*)"}, "limit": {"1"}},
	}, &rows)
	if err != nil {
		return nil, err
	}
	return first(rows), nil
}

// Track resolves the task, closes the running entry at the new start time,
// inserts the new entry and points current_tasks at it.
func (c *Client) Track(ctx context.Context, params model.TrackParams) (*model.CurrentTask, error) {
	uid, err := c.UserID(ctx)
	if err != nil {
		return nil, err
	}
	task, err := c.resolveTask(ctx, params)
	if err != nil {
		return nil, err
	}
	start := params.StartTime
	if start.IsZero() {
		start = c.now()
	}

	if _, err := c.stop(ctx, start); err != nil {
		return nil, fmt.Errorf("close running entry: %w", err)
	}

	var entries []model.TimeEntry
	err = c.rest(ctx, request{
		method: http.MethodPost,
		table:  "time_entries",
		body:   entryRow{TaskID: task.ID, StartTime: &start},
		prefer: returnRow,
	}, &entries)
	if err != nil {
		return nil, err
	}
	entry := first(entries)
	if entry == nil {
		return nil, errors.New("supabase: insert into time_entries returned no row")
	}

	err = c.rest(ctx, request{
		method: http.MethodPost,
		table:  "current_tasks",
		query:  url.Values{"on_conflict": {"user_id"}},
		body:   currentRow{UserID: uid, TaskID: task.ID, TimeEntryID: entry.ID},
		prefer: upsertRow,
	}, nil)
	if err != nil {
		return nil, err
	}

	return &model.CurrentTask{
		UserID:      uid,
		TaskID:      task.ID,
		TimeEntryID: entry.ID,
		Task:        task,
		TimeEntry:   *entry,
	}, nil
}

func (c *Client) resolveTask(ctx context.Context, p model.TrackParams) (model.Task, error) {
	switch {
	case p.TaskID != "":
		t, err := c.GetTask(ctx, p.TaskID)
		if err != nil {
			return model.Task{}, err
		}
		if t == nil {
			return model.Task{}, fmt.Errorf("supabase: no task with id %q", p.TaskID)
		}
		return *t, nil
	case p.AltCode != "":
		t, err := c.GetTaskByAltCode(ctx, p.AltCode)
		if err != nil {
			return model.Task{}, err
		}
		if t != nil {
			return *t, nil
		}
		name := p.Name
		if name == "" {
			name = p.AltCode
		}
		return c.createTrackedTask(ctx, name, p.AltCode)
	case p.Name != "":
		return c.createTrackedTask(ctx, p.Name, "")
	}
	return model.Task{}, errors.New("supabase: track needs a task id, alt code or name")
}

func (c *Client) StopTracking(ctx context.Context, endTime time.Time) error {
	if endTime.IsZero() {
		endTime = c.now()
	}
	stopped, err := c.stop(ctx, endTime)
	if err != nil {
		return err
	}
	if !stopped {
		return errors.New("supabase: nothing is being tracked")
	}
	return nil
}

// stop closes the running entry and deletes the pointer. It reports false
// when nothing was tracked.
func (c *Client) stop(ctx context.Context, end time.Time) (bool, error) {
	cur, err := c.CurrentTask(ctx)
	if err != nil || cur == nil {
		return false, err
	}
	err = c.rest(ctx, request{
		method: http.MethodPatch,
		table:  "time_entries",
		query:  url.Values{"id": {eq(cur.TimeEntryID)}, "end_time": {"is.null"}},
		body:   entryRow{EndTime: &end},
	}, nil)
	if err != nil {
		return false, err
	}
	err = c.rest(ctx, request{
		method: http.MethodDelete,
		table:  "current_tasks",
		query:  url.Values{"user_id": {eq(cur.UserID)}},
	}, nil)
	return err == nil, err
}
