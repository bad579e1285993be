package local

import (
	"context"
	"fmt"
	"strings"

	"github.com/rezmoss/simpletracker/internal/model"
)

func (g *Gateway) ListTags(ctx context.Context) ([]model.Tag, error) {
	if err := g.begin(ctx, OpListTags); err != nil {
		return nil, err
	}
	defer g.mu.Unlock()

	out := make([]model.Tag, 0, len(g.data.Tags))
	for _, t := range g.data.Tags {
		if t.UserID == g.data.UserID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (g *Gateway) CreateTag(ctx context.Context, name, hexColor string) (model.Tag, error) {
	if err := g.beginWrite(ctx, OpCreateTag); err != nil {
		return model.Tag{}, err
	}
	defer g.mu.Unlock()

	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return model.Tag{}, fmt.Errorf("tags: name is required")
	}
	t := model.Tag{
		ID:        newID(),
		Name:      name,
		HexColor:  hexColor,
		UserID:    g.data.UserID,
		CreatedAt: g.now(),
	}
	g.data.Tags = append(g.data.Tags, t)
	return t, g.commit()
}

func (g *Gateway) UpdateTag(ctx context.Context, tag model.Tag) error {
	if err := g.beginWrite(ctx, OpUpdateTag); err != nil {
		return err
	}
	defer g.mu.Unlock()

	i := g.tagIndex(tag.ID)
	if i < 0 {
		return fmt.Errorf("tags: no row with id %q", tag.ID)
	}
	g.data.Tags[i].Name = strings.TrimSpace(tag.Name)
	g.data.Tags[i].HexColor = tag.HexColor
	return g.commit()
}

func (g *Gateway) DeleteTag(ctx context.Context, id string) error {
	if err := g.beginWrite(ctx, OpDeleteTag); err != nil {
		return err
	}
	defer g.mu.Unlock()

	i := g.tagIndex(id)
	if i < 0 {
		return fmt.Errorf("tags: no row with id %q", id)
	}
	g.data.Tags = append(g.data.Tags[:i], g.data.Tags[i+1:]...)

	// cascade to the association table
	kept := g.data.TaskTags[:0]
	for _, tt := range g.data.TaskTags {
		if tt.TagID != id {
			kept = append(kept, tt)
		}
	}
	g.data.TaskTags = kept
	return g.commit()
}

func (g *Gateway) TaskTags(ctx context.Context, taskID string) ([]model.Tag, error) {
	if err := g.begin(ctx, OpTaskTags); err != nil {
		return nil, err
	}
	defer g.mu.Unlock()

	out := []model.Tag{}
	for _, tt := range g.data.TaskTags {
		if tt.TaskID != taskID {
			continue
		}
		if i := g.tagIndex(tt.TagID); i >= 0 {
			out = append(out, g.data.Tags[i])
		}
	}
	return out, nil
}

func (g *Gateway) AddTagToTask(ctx context.Context, taskID, tagID string) error {
	if err := g.beginWrite(ctx, OpAddTagToTask); err != nil {
		return err
	}
	defer g.mu.Unlock()

	if g.taskIndex(taskID) < 0 || g.tagIndex(tagID) < 0 {
		return fmt.Errorf("tasks_tags: unknown task %q or tag %q", taskID, tagID)
	}
	for _, tt := range g.data.TaskTags {
		if tt.TaskID == taskID && tt.TagID == tagID {
			return fmt.Errorf("tasks_tags: duplicate key (%s, %s)", taskID, tagID)
		}
	}
	g.data.TaskTags = append(g.data.TaskTags, model.TaskTag{TaskID: taskID, TagID: tagID})
	return g.commit()
}

func (g *Gateway) RemoveTagFromTask(ctx context.Context, taskID, tagID string) error {
	if err := g.beginWrite(ctx, OpRemoveTagFromTask); err != nil {
		return err
	}
	defer g.mu.Unlock()

	for i, tt := range g.data.TaskTags {
		if tt.TaskID == taskID && tt.TagID == tagID {
			g.data.TaskTags = append(g.data.TaskTags[:i], g.data.TaskTags[i+1:]...)
			break
		}
	}
	return g.commit()
}

func (g *Gateway) tagIndex(id string) int {
	for i, t := range g.data.Tags {
		if t.ID == id {
			return i
		}
	}
	return -1
}
