// Package favorites tracks which tasks the user pinned as favorites.
package favorites

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/rezmoss/simpletracker/internal/gateway"
	"github.com/rezmoss/simpletracker/internal/model"
	"github.com/rezmoss/simpletracker/internal/store"
)

// TaskUpdater persists a task and restores the stored copy when that fails.
type TaskUpdater interface {
	Update(ctx context.Context, task model.Task) error
}

// Controller keeps the ordered favorite ids; task data itself lives in the task store.
type Controller struct {
	gw      gateway.Gateway
	tasks   *store.Store[model.Task]
	updater TaskUpdater
	log     *slog.Logger

	mu  sync.Mutex
	ids []string
}

func New(gw gateway.Gateway, tasks *store.Store[model.Task], updater TaskUpdater, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{gw: gw, tasks: tasks, updater: updater, log: log}
}

// List resolves the favorites through the task store, skipping unknown ids.
func (c *Controller) List() []model.Task {
	c.mu.Lock()
	ids := slices.Clone(c.ids)
	c.mu.Unlock()

	out := make([]model.Task, 0, len(ids))
	for _, id := range ids {
		if t, ok := c.tasks.Get(id); ok {
			out = append(out, t)
		}
	}
	return out
}

func (c *Controller) Contains(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Contains(c.ids, id)
}

// Fetch replaces the favorites with the backend's. On failure nothing changes.
func (c *Controller) Fetch(ctx context.Context) error {
	list, err := c.gw.ListFavorites(ctx)
	if err != nil {
		c.log.Warn("failed to fetch favorites", "error", err)
		return model.Persistence("fetch favorites", err)
	}
	ids := make([]string, 0, len(list))
	for _, t := range list {
		if err := c.tasks.Put(t); err != nil {
			return err
		}
		ids = append(ids, t.ID)
	}

	c.mu.Lock()
	c.ids = ids
	c.mu.Unlock()
	return nil
}

// Add marks task as favorite. Adding a favorite twice is a no-op.
func (c *Controller) Add(ctx context.Context, task model.Task) error {
	if task.ID == "" {
		return model.Invalid("task is required")
	}
	c.mu.Lock()
	if slices.Contains(c.ids, task.ID) {
		c.mu.Unlock()
		return nil
	}
	c.ids = append(c.ids, task.ID)
	c.mu.Unlock()

	_, known := c.tasks.Get(task.ID)
	if !known {
		if err := c.tasks.Put(task); err != nil {
			c.drop(task.ID)
			return err
		}
	}
	task.IsFavorite = true
	if err := c.updater.Update(ctx, task); err != nil {
		c.drop(task.ID)
		if !known {
			c.tasks.Delete(task.ID)
		}
		return model.Persistence("add favorite", err)
	}
	return nil
}

// Remove unmarks task. Removing a task that is not a favorite is a no-op.
func (c *Controller) Remove(ctx context.Context, task model.Task) error {
	c.mu.Lock()
	i := slices.Index(c.ids, task.ID)
	if i < 0 {
		c.mu.Unlock()
		return nil
	}
	c.ids = slices.Delete(c.ids, i, i+1)
	c.mu.Unlock()

	if stored, ok := c.tasks.Get(task.ID); ok {
		task = stored
	}
	task.IsFavorite = false
	if err := c.updater.Update(ctx, task); err != nil {
		c.mu.Lock()
		if !slices.Contains(c.ids, task.ID) {
			c.ids = slices.Insert(c.ids, min(i, len(c.ids)), task.ID)
		}
		c.mu.Unlock()
		return model.Persistence("remove favorite", err)
	}
	return nil
}

// Toggle removes task when it is a favorite, by id, and adds it otherwise.
func (c *Controller) Toggle(ctx context.Context, task model.Task) error {
	if c.Contains(task.ID) {
		return c.Remove(ctx, task)
	}
	return c.Add(ctx, task)
}

func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = nil
}

func (c *Controller) drop(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := slices.Index(c.ids, id); i >= 0 {
		c.ids = slices.Delete(c.ids, i, i+1)
	}
}
