// Package tags manages the user's tags with optimistic local updates.
package tags

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rezmoss/simpletracker/internal/colors"
	"github.com/rezmoss/simpletracker/internal/gateway"
	"github.com/rezmoss/simpletracker/internal/model"
	"github.com/rezmoss/simpletracker/internal/store"
)

type Controller struct {
	gw    gateway.Gateway
	tags  *store.Store[model.Tag]
	tasks *store.Store[model.Task]
	log   *slog.Logger

	// NewColor picks the color of tags created without one.
	NewColor func() string
}

// New returns a controller over the tag store. tasks may be nil; when set,
// removed tags are also detached from stored tasks.
func New(gw gateway.Gateway, tags *store.Store[model.Tag], tasks *store.Store[model.Task], log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{gw: gw, tags: tags, tasks: tasks, log: log, NewColor: colors.Random}
}

// Normalize trims and lowercases a tag name.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (c *Controller) Get(id string) (model.Tag, bool) { return c.tags.Get(id) }

func (c *Controller) List() []model.Tag { return c.tags.List() }

// ByName finds a tag by its normalized name.
func (c *Controller) ByName(name string) (model.Tag, bool) {
	name = Normalize(name)
	return c.tags.Find(func(t model.Tag) bool { return t.Name == name })
}

// Load replaces the stored tags with the backend's. On failure the store is
// left as it was.
func (c *Controller) Load(ctx context.Context) error {
	list, err := c.gw.ListTags(ctx)
	if err != nil {
		c.log.Warn("failed to load tags", "error", err)
		return model.Persistence("load tags", err)
	}
	c.tags.Clear()
	return c.tags.PutAll(list)
}

// Add creates a tag. The name is normalized and checked against local tags
// before the backend is asked; hexColor defaults to a random palette color.
func (c *Controller) Add(ctx context.Context, name, hexColor string) (model.Tag, error) {
	name = Normalize(name)
	if name == "" {
		return model.Tag{}, model.Invalid("tag name is required")
	}
	if _, dup := c.ByName(name); dup {
		return model.Tag{}, model.ErrDuplicate
	}
	if hexColor == "" {
		hexColor = c.NewColor()
	}

	tag, err := c.gw.CreateTag(ctx, name, hexColor)
	if err != nil {
		return model.Tag{}, model.Persistence("create tag", err)
	}
	if err := c.tags.Put(tag); err != nil {
		return model.Tag{}, err
	}
	return tag, nil
}

// Update applies tag locally, persists it, and restores the previous tag on failure.
func (c *Controller) Update(ctx context.Context, tag model.Tag) error {
	old, ok := c.tags.Get(tag.ID)
	if !ok {
		return model.ErrNotFound
	}
	tag.Name = Normalize(tag.Name)
	if tag.Name == "" {
		return model.Invalid("tag name is required")
	}

	if err := c.tags.Put(tag); err != nil {
		return err
	}
	if err := c.gw.UpdateTag(ctx, tag); err != nil {
		_ = c.tags.Replace(old)
		return model.Persistence("update tag", err)
	}
	return nil
}

// Remove deletes a tag locally and on the backend, restoring it on failure.
func (c *Controller) Remove(ctx context.Context, id string) error {
	old, ok := c.tags.Delete(id)
	if !ok {
		return model.ErrNotFound
	}
	if err := c.gw.DeleteTag(ctx, id); err != nil {
		_ = c.tags.Put(old)
		return model.Persistence("delete tag", err)
	}
	c.detach(id)
	return nil
}

func (c *Controller) detach(tagID string) {
	if c.tasks == nil {
		return
	}
	for _, t := range c.tasks.List() {
		if !t.HasTag(tagID) {
			continue
		}
		kept := make([]model.Tag, 0, len(t.Tags))
		for _, tag := range t.Tags {
			if tag.ID != tagID {
				kept = append(kept, tag)
			}
		}
		t.Tags = kept
		_ = c.tasks.Replace(t)
	}
}
