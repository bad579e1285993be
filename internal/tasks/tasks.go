// Package tasks keeps the task store in step with the backend.
package tasks

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rezmoss/simpletracker/internal/gateway"
	"github.com/rezmoss/simpletracker/internal/model"
	"github.com/rezmoss/simpletracker/internal/store"
)

// TagLookup resolves tags known locally.
type TagLookup interface {
	Get(id string) (model.Tag, bool)
}

type Controller struct {
	gw    gateway.Gateway
	tasks *store.Store[model.Task]
	tags  TagLookup
	log   *slog.Logger
}

func New(gw gateway.Gateway, tasks *store.Store[model.Task], tags TagLookup, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{gw: gw, tasks: tasks, tags: tags, log: log}
}

func (c *Controller) Get(id string) (model.Task, bool) { return c.tasks.Get(id) }

func (c *Controller) List() []model.Task { return c.tasks.List() }

// Load puts every task from the backend into the store. On failure the store
// is left as it was.
func (c *Controller) Load(ctx context.Context) error {
	list, err := c.gw.ListTasks(ctx)
	if err != nil {
		c.log.Warn("failed to load tasks", "error", err)
		return model.Persistence("load tasks", err)
	}
	return c.tasks.PutAll(list)
}

// Create makes a task on the backend and stores it. A task created without an
// alt code gets its own id as alt code.
func (c *Controller) Create(ctx context.Context, name, altCode string) (model.Task, error) {
	name = strings.TrimSpace(name)
	altCode = strings.TrimSpace(altCode)
	if name == "" {
		return model.Task{}, model.Invalid("task name is required")
	}
	if _, dup := c.tasks.Find(func(t model.Task) bool { return t.Name == name }); dup {
		return model.Task{}, model.ErrDuplicate
	}

	task, err := c.gw.CreateTask(ctx, name, altCode)
	if err != nil {
		return model.Task{}, model.Persistence("create task", err)
	}
	if task.AltCode == "" {
		task.AltCode = task.ID
		if err := c.gw.UpdateTask(ctx, task); err != nil {
			c.log.Warn("failed to default alt code", "task_id", task.ID, "error", err)
			return model.Task{}, model.Persistence("create task", err)
		}
	}
	if err := c.tasks.Put(task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// Update persists task and stores it. The stored task is restored when the
// backend rejects the update.
func (c *Controller) Update(ctx context.Context, task model.Task) error {
	if task.ID == "" {
		return model.Invalid("task is required")
	}
	old, ok := c.tasks.Get(task.ID)
	if !ok {
		return model.ErrNotFound
	}

	if err := c.tasks.Put(task); err != nil {
		return err
	}
	if err := c.gw.UpdateTask(ctx, task); err != nil {
		_ = c.tasks.Replace(old)
		return model.Persistence("update task", err)
	}
	return nil
}

// LoadTags fetches the tags attached to a task.
func (c *Controller) LoadTags(ctx context.Context, taskID string) ([]model.Tag, error) {
	task, ok := c.tasks.Get(taskID)
	if !ok {
		return nil, model.ErrNotFound
	}
	tags, err := c.gw.TaskTags(ctx, taskID)
	if err != nil {
		c.log.Warn("failed to load task tags", "task_id", taskID, "error", err)
		return nil, model.Persistence("load task tags", err)
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	task.Tags = tags
	return tags, c.tasks.Replace(task)
}

// AddTag attaches a locally known tag to a task. Attaching a tag twice is a no-op.
func (c *Controller) AddTag(ctx context.Context, taskID, tagID string) error {
	task, ok := c.tasks.Get(taskID)
	if !ok {
		return model.ErrNotFound
	}
	tag, ok := c.tags.Get(tagID)
	if !ok {
		return model.ErrNotFound
	}
	if task.HasTag(tagID) {
		return nil
	}

	updated := task
	updated.Tags = append(append([]model.Tag{}, task.Tags...), tag)
	if err := c.tasks.Replace(updated); err != nil {
		return err
	}
	if err := c.gw.AddTagToTask(ctx, taskID, tagID); err != nil {
		_ = c.tasks.Replace(task)
		return model.Persistence("add tag to task", err)
	}
	return nil
}

// RemoveTag detaches a tag from a task. Removing an absent tag is a no-op.
func (c *Controller) RemoveTag(ctx context.Context, taskID, tagID string) error {
	task, ok := c.tasks.Get(taskID)
	if !ok {
		return model.ErrNotFound
	}
	if !task.HasTag(tagID) {
		return nil
	}

	updated := task
	updated.Tags = make([]model.Tag, 0, len(task.Tags)-1)
	for _, t := range task.Tags {
		if t.ID != tagID {
			updated.Tags = append(updated.Tags, t)
		}
	}
	if err := c.tasks.Replace(updated); err != nil {
		return err
	}
	if err := c.gw.RemoveTagFromTask(ctx, taskID, tagID); err != nil {
		_ = c.tasks.Replace(task)
		return model.Persistence("remove tag from task", err)
	}
	return nil
}
