package model

import (
	"time"
)

// Task is something time can be tracked against.
type Task struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	AltCode    string    `json:"alt_code,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UserID     string    `json:"user_id"`
	IsFavorite bool      `json:"is_favorite"`
	// Tags is nil until the task's tags have been fetched.
	Tags []Tag `json:"tags,omitempty"`
}

func (t Task) Key() string { return t.ID }

// Merge returns t with its unset fields taken from prev.
// IsFavorite is always taken from t.
func (t Task) Merge(prev Task) Task {
	if t.Name == "" {
		t.Name = prev.Name
	}
	if t.AltCode == "" {
		t.AltCode = prev.AltCode
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = prev.CreatedAt
	}
	if t.UserID == "" {
		t.UserID = prev.UserID
	}
	if t.Tags == nil {
		t.Tags = prev.Tags
	}
	return t
}

// HasTag reports whether the tag id is attached to the task.
func (t Task) HasTag(tagID string) bool {
	for _, tag := range t.Tags {
		if tag.ID == tagID {
			return true
		}
	}
	return false
}

// TimeEntry represents a single tracked interval. EndTime is nil while the entry is open.
type TimeEntry struct {
	ID        string     `json:"id"`
	TaskID    string     `json:"task_id"`
	UserID    string     `json:"user_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	// Task is a read convenience embedded by the backend, not authoritative.
	Task *Task `json:"tasks,omitempty"`
}

func (e TimeEntry) Key() string { return e.ID }

// Merge returns e with its unset fields taken from prev. A nil EndTime keeps the
// previous end time; use a full replace to reopen an entry.
func (e TimeEntry) Merge(prev TimeEntry) TimeEntry {
	if e.TaskID == "" {
		e.TaskID = prev.TaskID
	}
	if e.UserID == "" {
		e.UserID = prev.UserID
	}
	if e.StartTime.IsZero() {
		e.StartTime = prev.StartTime
	}
	if e.EndTime == nil {
		e.EndTime = prev.EndTime
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = prev.CreatedAt
	}
	if e.Task == nil {
		e.Task = prev.Task
	}
	return e
}

func (e TimeEntry) IsOpen() bool { return e.EndTime == nil }

// Duration returns end minus start; ok is false while the entry is open.
func (e TimeEntry) Duration() (d time.Duration, ok bool) {
	if e.EndTime == nil {
		return 0, false
	}
	return e.EndTime.Sub(e.StartTime), true
}

// Closed returns a copy of e ended at t.
func (e TimeEntry) Closed(t time.Time) TimeEntry {
	e.EndTime = &t
	return e
}

// Reopened returns a copy of e with no end time.
func (e TimeEntry) Reopened() TimeEntry {
	e.EndTime = nil
	return e
}

// Tag labels tasks. Name is stored trimmed and lowercase.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	HexColor  string    `json:"hex_color,omitempty"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (t Tag) Key() string { return t.ID }

func (t Tag) Merge(prev Tag) Tag {
	if t.Name == "" {
		t.Name = prev.Name
	}
	if t.HexColor == "" {
		t.HexColor = prev.HexColor
	}
	if t.UserID == "" {
		t.UserID = prev.UserID
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = prev.CreatedAt
	}
	return t
}

// TaskTag is one row of the task/tag association.
type TaskTag struct {
	TaskID string `json:"task_id"`
	TagID  string `json:"tag_id"`
}

// CurrentTask is the per-user tracking pointer joined with its task and open entry.
type CurrentTask struct {
	UserID      string    `json:"user_id"`
	TaskID      string    `json:"task_id"`
	TimeEntryID string    `json:"time_entry_id"`
	Task        Task      `json:"tasks"`
	TimeEntry   TimeEntry `json:"time_entries"`
}

// CurrentTaskRecord is the bare current_tasks row delivered by change notifications.
type CurrentTaskRecord struct {
	UserID      string    `json:"user_id"`
	TaskID      string    `json:"task_id"`
	TimeEntryID string    `json:"time_entry_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// ChangeEvent is a realtime notification about the current_tasks row.
type ChangeEvent struct {
	Type EventType
	New  CurrentTaskRecord
	Old  CurrentTaskRecord
}

// TrackParams selects the task to start tracking. At least one of TaskID,
// AltCode or Name must be set.
type TrackParams struct {
	TaskID    string    `json:"taskId,omitempty"`
	AltCode   string    `json:"altCode,omitempty"`
	Name      string    `json:"name,omitempty"`
	StartTime time.Time `json:"-"`
}

func (p TrackParams) IsEmpty() bool {
	return p.TaskID == "" && p.AltCode == "" && p.Name == ""
}
