// Package gateway defines the contract of the remote persistence, auth and
// realtime service the client state layer runs against.
package gateway

import (
	"context"
	"time"

	"github.com/rezmoss/simpletracker/internal/model"
)

// Gateway is implemented by a backend. Lookups that find nothing return a nil
// pointer and a nil error. Every per-user query is scoped to the authenticated user.
type Gateway interface {
	// UserID resolves the authenticated user.
	UserID(ctx context.Context) (string, error)

	ListTasks(ctx context.Context) ([]model.Task, error)
	GetTask(ctx context.Context, id string) (*model.Task, error)
	GetTaskByAltCode(ctx context.Context, altCode string) (*model.Task, error)
	CreateTask(ctx context.Context, name, altCode string) (model.Task, error)
	UpdateTask(ctx context.Context, task model.Task) error
	ListFavorites(ctx context.Context) ([]model.Task, error)

	ListTags(ctx context.Context) ([]model.Tag, error)
	CreateTag(ctx context.Context, name, hexColor string) (model.Tag, error)
	UpdateTag(ctx context.Context, tag model.Tag) error
	DeleteTag(ctx context.Context, id string) error
	TaskTags(ctx context.Context, taskID string) ([]model.Tag, error)
	AddTagToTask(ctx context.Context, taskID, tagID string) error
	RemoveTagFromTask(ctx context.Context, taskID, tagID string) error

	// ListEntries returns closed entries ordered by start time descending, rows
	// limit*page through limit*(page+1)-1, with the task embedded.
	ListEntries(ctx context.Context, limit, page int) ([]model.TimeEntry, error)
	UpdateEntry(ctx context.Context, entry model.TimeEntry) error
	DeleteEntry(ctx context.Context, id string) error

	CurrentTask(ctx context.Context) (*model.CurrentTask, error)
	// Track resolves or creates the task, closes any open entry, opens a new
	// entry at params.StartTime and upserts the current task pointer.
	Track(ctx context.Context, params model.TrackParams) (*model.CurrentTask, error)
	// StopTracking ends the open entry at endTime and deletes the current task pointer.
	StopTracking(ctx context.Context, endTime time.Time) error
	SubscribeCurrentTask(ctx context.Context, fn func(model.ChangeEvent)) (Subscription, error)

	// DataPoints returns report rows with start >= start and end < end, ascending by start.
	DataPoints(ctx context.Context, start, end time.Time) ([]model.DataPoint, error)
	ListCharts(ctx context.Context) ([]model.SavedChart, error)
	SaveChart(ctx context.Context, rec model.ChartRecord) (model.SavedChart, error)
	DeleteChart(ctx context.Context, id string) error
}

// Subscription is a registered change listener.
type Subscription interface {
	// Unsubscribe releases the channel. It is safe to call more than once.
	Unsubscribe() error
}
